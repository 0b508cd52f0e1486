// Package threadpool provides a fixed-size worker pool consuming a shared FIFO queue.
//
// Lifecycle
//   - New(ctx, opts...): validates the size (1..MaxPoolSize) and starts every worker.
//   - Submit(task): queues the task and wakes one idle worker. Never blocks.
//   - Shutdown(): stops intake, drains the queue, then stops and joins the workers.
//
// A Pool moves through three states: Active, Draining (Shutdown in progress, Submit
// returns ErrClosed) and Stopped (all workers joined). Shutdown may be called once;
// later calls return ErrAlreadyShutdown.
//
// Defaults
// Unless overridden, the following defaults apply to a newly created Pool:
//   - Workers: runtime.NumCPU(), capped at MaxPoolSize
//   - MaxQueueLength: 0 (unbounded)
//   - Metrics: metrics.NoopProvider
//   - ErrorHandler: log the failure through Logger
//   - Logger: slog.Default()
//
// Errors
// Submit reports rejections as values: ErrClosed once Shutdown has begun and
// ErrResourceExhausted when a queue cap is configured and reached. Task errors and
// panics never leave the worker; they reach the ErrorHandler wrapped with the task's
// submission index (see ExtractTaskIndex).
//
// Ordering
// Tasks are dequeued in submission order. With more than one worker, completion
// order is not defined.
package threadpool
