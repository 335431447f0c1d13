// Package blobstore holds uploaded report documents between ingest and
// processing, keyed by locator.
package blobstore

import "context"

// Store is the blob storage contract.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Close() error
}
