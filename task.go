package threadpool

import (
	"context"
	"fmt"
)

// Task is a unit of work executed by exactly one worker.
// It owns whatever it captured; once submitted, the pool holds the only reference
// until a worker has executed it.
//
// Example:
//
//	t := TaskWithArg(func(ctx context.Context, conn net.Conn) error { return serve(ctx, conn) }, conn)
//	_ = p.Submit(t)
type Task func(ctx context.Context) error

// TaskFunc adapts func() to Task.
func TaskFunc(fn func()) Task {
	if fn == nil {
		return nil
	}
	return func(context.Context) error { fn(); return nil }
}

// TaskError adapts func(ctx) error to Task.
func TaskError(fn func(context.Context) error) Task { return Task(fn) }

// TaskWithArg binds a callable to its argument. The argument is moved into the task:
// the caller must not use it after submission.
func TaskWithArg[A any](fn func(context.Context, A) error, arg A) Task {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context) error { return fn(ctx, arg) }
}

// queuedTask is a Task together with its submission index.
type queuedTask struct {
	run   Task
	index int
}

// execTask runs t on the calling goroutine and converts a panic into an error.
func execTask(ctx context.Context, t Task) (err error) {
	defer func() {
		if ePanic := recover(); ePanic != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, ePanic)
		}
	}()

	return t(ctx)
}
