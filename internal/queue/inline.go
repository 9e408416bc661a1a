package queue

import "context"

// InlineQueue runs each job synchronously; the hand-off succeeds only when the send does
type InlineQueue struct {
	handler Handler
}

// NewInlineQueue creates a queue that executes jobs with handler
func NewInlineQueue(handler Handler) *InlineQueue {
	return &InlineQueue{handler: handler}
}

// Enqueue runs the job immediately
func (q *InlineQueue) Enqueue(ctx context.Context, job Job) error {
	return q.handler.Handle(ctx, job)
}
