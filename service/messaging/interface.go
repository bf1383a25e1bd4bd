package messaging

import (
	"context"
)

// Vendor names a queue backend, e.g. "memory" or "fs".
type Vendor string

// Queue carries lifecycle events from the scheduler to their listeners.
type Queue[T any] interface {
	Publish(ctx context.Context, t *T) error

	// Consume blocks until a message is available or ctx is done.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is a consumed payload awaiting settlement. Exactly one of Ack or
// Nack may be called.
type Message[T any] interface {
	T() *T

	Ack() error

	// Nack requeues the payload until the backend's retry limit is reached.
	Nack(err error) error
}
