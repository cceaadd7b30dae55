package port

import (
	"context"
	"time"
)

// Task is one background job: a stable type name plus opaque payload bytes.
// Payload encoding is the producer's business; handlers decode what they wrote.
type Task struct {
	Type    string
	Payload []byte
}

// Handler processes a Task. A non-nil error requests a retry under the
// adapter's policy, so handlers must be idempotent.
type Handler func(ctx context.Context, task Task) error

// EnqueueOption tunes delivery. Zero values mean "adapter default".
type EnqueueOption struct {
	Queue     string        // logical queue name
	ProcessIn time.Duration // delay before the task becomes runnable
	MaxRetry  int           // max retries before the task is archived
	UniqueTTL time.Duration // suppress duplicate tasks within the window
}

// Client enqueues tasks for background processing.
type Client interface {
	Enqueue(ctx context.Context, t Task, opts ...EnqueueOption) (id string, err error)
	Close() error
}

// Server runs the background workers. Run blocks until the context is
// canceled or Stop is called.
type Server interface {
	Register(taskType string, h Handler)
	Run(ctx context.Context) error
	Stop(ctx context.Context) error
}
