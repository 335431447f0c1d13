package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kmorell/sitedigest/internal/extract"
	"github.com/kmorell/sitedigest/internal/queue"
)

// MessageSource is the receive side of the job queue.
type MessageSource interface {
	Receive(ctx context.Context) (*queue.Message, error)
}

// Store persists job status and extraction results.
type Store interface {
	UpdateStatus(ctx context.Context, jobID string, status Status) error
	// SaveResult writes the extracted data and moves the job to COMPLETED
	// in one update.
	SaveResult(ctx context.Context, jobID string, data extract.ExtractedData) error
}

// Consumer is a timer-driven single-flight poller. Each tick receives at
// most one message and runs its job to completion; ticks arriving while a
// poll is in flight are dropped, not queued. Jobs never interleave.
type Consumer struct {
	source   MessageSource
	store    Store
	orch     *Orchestrator
	log      *slog.Logger
	interval time.Duration

	// busy is the single-flight token. It is owned by the running poll
	// cycle and released unconditionally when the cycle ends.
	busy atomic.Bool
	wg   sync.WaitGroup
}

func NewConsumer(source MessageSource, store Store, orch *Orchestrator, log *slog.Logger, interval time.Duration) *Consumer {
	return &Consumer{
		source:   source,
		store:    store,
		orch:     orch,
		log:      log,
		interval: interval,
	}
}

// Start runs the poll loop until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.wg.Add(1)
				go func() {
					defer c.wg.Done()
					c.tick(ctx)
				}()
			}
		}
	}()
}

// Stop blocks until the loop and any in-flight poll have finished. Cancel
// the Start context first.
func (c *Consumer) Stop() {
	c.wg.Wait()
}

// tick claims the single-flight token and runs one poll cycle. It reports
// false, touching nothing, when a prior cycle still holds the token.
func (c *Consumer) tick(ctx context.Context) bool {
	if !c.busy.CompareAndSwap(false, true) {
		return false
	}
	defer c.busy.Store(false)
	c.poll(ctx)
	return true
}

// poll receives at most one message and dispatches it. A malformed body is
// logged and dropped without touching job status: its job identity cannot
// be trusted, and redelivering it could never succeed.
func (c *Consumer) poll(ctx context.Context) {
	msg, err := c.source.Receive(ctx)
	if err != nil {
		c.log.Error("queue receive failed", "error", err)
		return
	}
	if msg == nil {
		return
	}

	job, err := ParseJobMessage(msg.Body)
	if err != nil {
		c.log.Error("malformed job message, dropping", "error", err)
		if termErr := msg.Term(); termErr != nil {
			c.log.Warn("failed to drop malformed message", "error", termErr)
		}
		return
	}

	c.process(ctx, job, msg)
}

// process drives one job through the status machine. The message is deleted
// only after the result is persisted; on any failure it is left on the
// queue, and transport redelivery is the sole retry mechanism.
func (c *Consumer) process(ctx context.Context, job Job, msg *queue.Message) {
	log := c.log.With("job_id", job.ID, "tenant", job.Tenant, "project", job.Project)

	if err := c.store.UpdateStatus(ctx, job.ID, StatusProcessing); err != nil {
		log.Error("failed to mark job processing", "error", err)
		return
	}

	result, err := c.orch.Run(ctx, job)
	if err != nil {
		log.Error("extraction failed", "error", err)
		if uerr := c.store.UpdateStatus(ctx, job.ID, StatusFailed); uerr != nil {
			log.Error("failed to mark job failed", "error", uerr)
		}
		return
	}

	if err := c.store.SaveResult(ctx, job.ID, result.Data); err != nil {
		log.Error("failed to persist result", "error", err)
		return
	}

	if err := msg.Ack(); err != nil {
		// The job is COMPLETED; a redelivered message will be reprocessed
		// and overwrite with the same result.
		log.Warn("failed to delete message after completion", "error", err)
	}

	log.Info("job completed",
		"overall_confidence", result.OverallConfidence,
		"fallback_sections", result.FallbackSections,
		"warnings", len(result.Warnings),
		"fetch_ms", result.StageTimings[StageFetchText].Milliseconds(),
		"pattern_ms", result.StageTimings[StagePatternExtract].Milliseconds(),
		"fallback_ms", result.StageTimings[StageFallback].Milliseconds(),
		"conflict_ms", result.StageTimings[StageConflictDetect].Milliseconds(),
	)
}
