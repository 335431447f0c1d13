package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// JetStreamConfig describes the stream and durable consumer backing the
// job queue.
type JetStreamConfig struct {
	URL     string
	Stream  string
	Subject string
	Durable string

	// AckWait is the redelivery window: a message neither acked nor termed
	// within it is delivered again. This is the system's only retry
	// mechanism.
	AckWait time.Duration

	// MaxDeliver bounds redeliveries before the server stops delivering the
	// message (the dead-letter boundary).
	MaxDeliver int

	// FetchWait bounds how long Receive blocks when the queue is empty.
	FetchWait time.Duration
}

// JetStream is the NATS JetStream implementation of Queue: a pull consumer
// fetching one message at a time with explicit acks.
type JetStream struct {
	nc  *nats.Conn
	js  nats.JetStreamContext
	sub *nats.Subscription
	cfg JetStreamConfig
}

func ConnectJetStream(cfg JetStreamConfig) (*JetStream, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("sitedigest"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.Subject},
		Retention: nats.WorkQueuePolicy,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		nc.Close()
		return nil, fmt.Errorf("ensure stream %s: %w", cfg.Stream, err)
	}

	sub, err := js.PullSubscribe(cfg.Subject, cfg.Durable,
		nats.AckExplicit(),
		nats.AckWait(cfg.AckWait),
		nats.MaxDeliver(cfg.MaxDeliver),
	)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("pull subscribe %s: %w", cfg.Subject, err)
	}

	return &JetStream{nc: nc, js: js, sub: sub, cfg: cfg}, nil
}

// Receive fetches at most one message. An empty queue is (nil, nil), not an
// error.
func (q *JetStream) Receive(ctx context.Context) (*Message, error) {
	if ctx.Err() != nil {
		return nil, nil
	}
	msgs, err := q.sub.Fetch(1, nats.MaxWait(q.cfg.FetchWait))
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch message: %w", err)
	}
	if len(msgs) == 0 {
		return nil, nil
	}

	m := msgs[0]
	return NewMessage(m.Data,
		func() error { return m.Ack() },
		func() error { return m.Term() },
	), nil
}

func (q *JetStream) Publish(ctx context.Context, body []byte) error {
	if _, err := q.js.Publish(q.cfg.Subject, body, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish to %s: %w", q.cfg.Subject, err)
	}
	return nil
}

func (q *JetStream) Close() error {
	return q.nc.Drain()
}
