package queue

import "errors"

// Reasons an event was not enqueued.
var (
	ErrClosed = errors.New("queue closed")
	ErrFull   = errors.New("queue full")
)
