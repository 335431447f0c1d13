package pipeline

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the persisted lifecycle state of an extraction job.
//
// PENDING is written at ingest time, before the job is enqueued. The
// consumer moves a dequeued job to PROCESSING, then to COMPLETED or FAILED.
// There are no other transitions.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Job is one queued extraction request. It is immutable once decoded off
// the queue and owned by a single processing attempt.
type Job struct {
	ID            string    `json:"jobId"`
	Locator       string    `json:"locator"`
	Tenant        string    `json:"tenant"`
	Project       string    `json:"project"`
	Subcontractor string    `json:"subcontractor"`
	PublishedAt   time.Time `json:"publishedAt"`
}

// ParseJobMessage decodes a queue message body. A body that is not JSON or
// lacks the job identity fields is malformed; the job it references, if
// any, cannot be safely touched.
func ParseJobMessage(body []byte) (Job, error) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return Job{}, fmt.Errorf("decode job message: %w", err)
	}
	if job.ID == "" {
		return Job{}, fmt.Errorf("job message missing jobId")
	}
	if job.Locator == "" {
		return Job{}, fmt.Errorf("job message missing locator")
	}
	return job, nil
}
