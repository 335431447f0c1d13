package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/kmorell/sitedigest/internal/blobstore"
	"github.com/kmorell/sitedigest/internal/parser"
)

// BlobTextExtractor resolves a locator by fetching the stored document blob
// and rendering it to plain text with the parser matching its extension.
// The locator's final path segment is the original filename.
type BlobTextExtractor struct {
	blobs blobstore.Store
}

func NewBlobTextExtractor(blobs blobstore.Store) *BlobTextExtractor {
	return &BlobTextExtractor{blobs: blobs}
}

func (b *BlobTextExtractor) ExtractText(ctx context.Context, locator string) (string, error) {
	data, err := b.blobs.Get(ctx, locator)
	if err != nil {
		return "", fmt.Errorf("fetch document %s: %w", locator, err)
	}

	filename := path.Base(locator)
	p, err := parser.ForFile(filename)
	if err != nil {
		return "", err
	}

	text, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return "", fmt.Errorf("render %s to text: %w", filename, err)
	}
	return text, nil
}
