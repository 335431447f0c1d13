// Package queue abstracts the message transport that carries extraction
// jobs between the ingest endpoint and the consumer.
package queue

import "context"

// Queue is the transport contract: publish a job payload, receive at most
// one pending message at a time.
type Queue interface {
	// Receive fetches the next pending message, or (nil, nil) when the
	// queue is empty.
	Receive(ctx context.Context) (*Message, error)
	Publish(ctx context.Context, body []byte) error
	Close() error
}

// Message is one received queue message with its acknowledgement handles.
type Message struct {
	Body []byte

	ack  func() error
	term func() error
}

// NewMessage wraps a transport message. ack deletes the message; term drops
// it permanently without redelivery.
func NewMessage(body []byte, ack, term func() error) *Message {
	return &Message{Body: body, ack: ack, term: term}
}

// Ack deletes the message from the queue. Call only after the job outcome
// has been persisted; unacked messages are redelivered.
func (m *Message) Ack() error {
	if m.ack == nil {
		return nil
	}
	return m.ack()
}

// Term drops the message permanently. Used for bodies that can never be
// processed, where redelivery would only repeat the failure.
func (m *Message) Term() error {
	if m.term == nil {
		return nil
	}
	return m.term()
}
