package queue

import "context"

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Receiver pulls raw message bodies from a queue backend.
type Receiver interface {
	Receive(ctx context.Context) ([]Delivery, error)
	Ack(ctx context.Context, d Delivery) error
}

// Delivery is one received body plus the handle needed to acknowledge it.
type Delivery struct {
	ID     string
	Body   string
	handle string
}
