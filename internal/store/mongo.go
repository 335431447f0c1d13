// Package store persists job lifecycle state and extraction results in
// MongoDB.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kmorell/sitedigest/internal/extract"
	"github.com/kmorell/sitedigest/internal/pipeline"
)

// JobRecord is the persisted job document. Status is the only field with a
// lifecycle beyond a single processing attempt.
type JobRecord struct {
	ID            string                 `bson:"_id" json:"jobId"`
	Filename      string                 `bson:"filename" json:"filename"`
	Locator       string                 `bson:"locator" json:"-"`
	Tenant        string                 `bson:"tenant" json:"tenant"`
	Project       string                 `bson:"project" json:"project"`
	Subcontractor string                 `bson:"subcontractor,omitempty" json:"subcontractor,omitempty"`
	Status        pipeline.Status        `bson:"status" json:"status"`
	Result        *extract.ExtractedData `bson:"result,omitempty" json:"result,omitempty"`
	CreatedAt     time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time              `bson:"updated_at" json:"updated_at"`
}

// Mongo implements job persistence over a single collection.
type Mongo struct {
	client *mongo.Client
	jobs   *mongo.Collection
	log    *slog.Logger
}

func Open(ctx context.Context, uri, database, collection string, connectTimeout time.Duration, log *slog.Logger) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &Mongo{
		client: client,
		jobs:   client.Database(database).Collection(collection),
		log:    log,
	}, nil
}

// Create inserts a new job in PENDING state.
func (m *Mongo) Create(ctx context.Context, rec JobRecord) error {
	now := time.Now().UTC()
	rec.Status = pipeline.StatusPending
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if _, err := m.jobs.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert job %s: %w", rec.ID, err)
	}
	return nil
}

// UpdateStatus moves a job to the given status.
func (m *Mongo) UpdateStatus(ctx context.Context, jobID string, status pipeline.Status) error {
	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}}
	err := m.jobs.FindOneAndUpdate(ctx, bson.M{"_id": jobID}, update).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("job %s not found", jobID)
	}
	if err != nil {
		return fmt.Errorf("update job %s status: %w", jobID, err)
	}
	m.log.Info("job status updated", "job_id", jobID, "status", status)
	return nil
}

// SaveResult writes the extracted data and moves the job to COMPLETED in
// one update.
func (m *Mongo) SaveResult(ctx context.Context, jobID string, data extract.ExtractedData) error {
	update := bson.M{"$set": bson.M{
		"status":     pipeline.StatusCompleted,
		"result":     data,
		"updated_at": time.Now().UTC(),
	}}
	err := m.jobs.FindOneAndUpdate(ctx, bson.M{"_id": jobID}, update).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("job %s not found", jobID)
	}
	if err != nil {
		return fmt.Errorf("save job %s result: %w", jobID, err)
	}
	m.log.Info("job result saved", "job_id", jobID)
	return nil
}

// Get returns a job by ID, or nil when it does not exist.
func (m *Mongo) Get(ctx context.Context, jobID string) (*JobRecord, error) {
	var rec JobRecord
	err := m.jobs.FindOne(ctx, bson.M{"_id": jobID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find job %s: %w", jobID, err)
	}
	return &rec, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
