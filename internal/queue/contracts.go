package queue

import "context"

// Message is one job request read from the stream. Values keeps the raw
// entry fields for dead-letter copies.
type Message struct {
	ID     string
	JobID  string
	Values map[string]interface{}
}

// Consumer reads job messages from a durable stream under a consumer group.
type Consumer interface {
	// ReadOne long-polls for at most one new message. A nil message with a
	// nil error means the poll timed out.
	ReadOne(ctx context.Context) (*Message, error)
	Acknowledger
}

// Acknowledger confirms terminal handling of a message so it is not
// redelivered.
type Acknowledger interface {
	Ack(ctx context.Context, messageID string) error
}

// DeadLetterer preserves unprocessable messages on a side stream for
// inspection.
type DeadLetterer interface {
	DeadLetter(ctx context.Context, message Message, reason string) error
}
