package ports

import (
	"context"
	"time"
)

// Task is a unit of background work. Run must be safe to re-execute: the
// scheduler retries whole tasks, relying on upsert idempotence for safety.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler dispatches tasks to a worker pool with a bounded retry policy
// (fixed attempt count, fixed backoff) applied to unhandled failures. Tasks
// must not implement their own retry loops for the same failure classes.
type Scheduler interface {
	Enqueue(task Task)
	EnqueueIn(delay time.Duration, task Task)
	// RunNow executes the task synchronously, applying the same retry policy,
	// for interactive trigger endpoints.
	RunNow(ctx context.Context, task Task) error
}

// Locker provides cross-process mutual exclusion; used to serialize tasks
// targeting the same integration.
type Locker interface {
	// Acquire returns true if the lock was taken. The lock self-expires after
	// ttl so a crashed holder cannot wedge an integration forever.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
