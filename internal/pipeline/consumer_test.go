package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kmorell/sitedigest/internal/extract"
	"github.com/kmorell/sitedigest/internal/queue"
)

type fakeSource struct {
	mu       sync.Mutex
	msgs     []*queue.Message
	err      error
	receives atomic.Int32
	block    chan struct{} // non-nil: Receive blocks until closed
}

func (f *fakeSource) Receive(_ context.Context) (*queue.Message, error) {
	f.receives.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.msgs) == 0 {
		return nil, nil
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

type fakeStore struct {
	mu       sync.Mutex
	statuses []Status
	saved    []extract.ExtractedData
}

func (f *fakeStore) UpdateStatus(_ context.Context, _ string, status Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeStore) SaveResult(_ context.Context, _ string, data extract.ExtractedData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, data)
	return nil
}

func newTestConsumer(source MessageSource, store Store, texts TextExtractor) *Consumer {
	llm := &fakeCompleter{fallback: `{"conflicts": []}`}
	orch := NewOrchestrator(texts, llm, discardLogger())
	return NewConsumer(source, store, orch, discardLogger(), time.Hour)
}

func TestConsumer_SingleFlight(t *testing.T) {
	source := &fakeSource{block: make(chan struct{})}
	store := &fakeStore{}
	c := newTestConsumer(source, store, &fakeTexts{text: structuredReport})

	done := make(chan bool)
	go func() { done <- c.tick(context.Background()) }()

	// Wait for the first cycle to be inside Receive.
	for source.receives.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	// Ticks while a cycle is in flight are dropped without touching the queue.
	for i := 0; i < 3; i++ {
		if c.tick(context.Background()) {
			t.Fatal("tick should be dropped while a cycle is in flight")
		}
	}
	if got := source.receives.Load(); got != 1 {
		t.Errorf("expected 1 receive, got %d", got)
	}

	close(source.block)
	if !<-done {
		t.Error("first tick should have run")
	}

	// Token released: the next tick runs.
	if !c.tick(context.Background()) {
		t.Error("tick after release should run")
	}
}

func TestConsumer_MalformedMessageDropped(t *testing.T) {
	var acked, termed atomic.Int32
	msg := queue.NewMessage([]byte("not json"),
		func() error { acked.Add(1); return nil },
		func() error { termed.Add(1); return nil },
	)
	source := &fakeSource{msgs: []*queue.Message{msg}}
	store := &fakeStore{}
	c := newTestConsumer(source, store, &fakeTexts{text: structuredReport})

	c.tick(context.Background())

	if termed.Load() != 1 {
		t.Errorf("expected malformed message to be dropped, term calls = %d", termed.Load())
	}
	if acked.Load() != 0 {
		t.Errorf("malformed message must not be acked, ack calls = %d", acked.Load())
	}
	if len(store.statuses) != 0 || len(store.saved) != 0 {
		t.Errorf("malformed message must not touch job state: %v %v", store.statuses, store.saved)
	}
}

func TestConsumer_SuccessfulJob(t *testing.T) {
	var acked, termed atomic.Int32
	body := []byte(`{"jobId": "j1", "locator": "reports/j1/report.txt", "tenant": "acme", "project": "tower"}`)
	msg := queue.NewMessage(body,
		func() error { acked.Add(1); return nil },
		func() error { termed.Add(1); return nil },
	)
	source := &fakeSource{msgs: []*queue.Message{msg}}
	store := &fakeStore{}
	c := newTestConsumer(source, store, &fakeTexts{text: structuredReport})

	c.tick(context.Background())

	if len(store.statuses) != 1 || store.statuses[0] != StatusProcessing {
		t.Errorf("expected status [PROCESSING], got %v", store.statuses)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected 1 saved result, got %d", len(store.saved))
	}
	if store.saved[0].Workforce == nil || store.saved[0].Workforce.TotalWorkers != 8 {
		t.Errorf("unexpected saved data: %+v", store.saved[0])
	}
	if acked.Load() != 1 {
		t.Errorf("expected message deleted after persistence, ack calls = %d", acked.Load())
	}
	if termed.Load() != 0 {
		t.Errorf("successful message must not be termed, term calls = %d", termed.Load())
	}
}

func TestConsumer_FailedJobLeftOnQueue(t *testing.T) {
	var acked atomic.Int32
	body := []byte(`{"jobId": "j2", "locator": "reports/j2/report.txt", "tenant": "acme", "project": "tower"}`)
	msg := queue.NewMessage(body,
		func() error { acked.Add(1); return nil },
		func() error { return nil },
	)
	source := &fakeSource{msgs: []*queue.Message{msg}}
	store := &fakeStore{}
	c := newTestConsumer(source, store, &fakeTexts{err: errors.New("blob missing")})

	c.tick(context.Background())

	want := []Status{StatusProcessing, StatusFailed}
	if len(store.statuses) != 2 || store.statuses[0] != want[0] || store.statuses[1] != want[1] {
		t.Errorf("expected statuses %v, got %v", want, store.statuses)
	}
	if len(store.saved) != 0 {
		t.Errorf("failed job must not save a result, got %+v", store.saved)
	}
	if acked.Load() != 0 {
		t.Errorf("failed job's message must stay on the queue, ack calls = %d", acked.Load())
	}
}

func TestConsumer_EmptyQueueNoop(t *testing.T) {
	source := &fakeSource{}
	store := &fakeStore{}
	c := newTestConsumer(source, store, &fakeTexts{text: structuredReport})

	if !c.tick(context.Background()) {
		t.Error("tick on an empty queue should still run")
	}
	if len(store.statuses) != 0 {
		t.Errorf("empty queue must not touch job state: %v", store.statuses)
	}
}

func TestConsumer_ReceiveErrorLogged(t *testing.T) {
	source := &fakeSource{err: errors.New("nats down")}
	store := &fakeStore{}
	c := newTestConsumer(source, store, &fakeTexts{text: structuredReport})

	// Must not panic or touch state; the next tick will try again.
	c.tick(context.Background())
	if len(store.statuses) != 0 {
		t.Errorf("receive error must not touch job state: %v", store.statuses)
	}
}
