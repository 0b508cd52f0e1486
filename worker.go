package threadpool

import (
	"errors"
	"log/slog"
	"time"
)

type worker struct {
	id   int
	pool *Pool
}

func newWorker(id int, p *Pool) *worker {
	return &worker{id: id, pool: p}
}

// run is the worker loop. It holds p.mu everywhere except while a task executes,
// and returns only after observing shuttingDown.
func (w *worker) run() {
	p := w.pool

	p.mu.Lock()
	for {
		for p.queue.empty() && !p.shuttingDown {
			p.notEmpty.Wait()
		}
		// shuttingDown is only set once the queue is empty and intake is closed,
		// so leaving here never strands a task.
		if p.shuttingDown {
			p.mu.Unlock()
			return
		}

		t, _ := p.queue.dequeue()
		p.active++
		p.mu.Unlock()

		w.execute(t)

		p.mu.Lock()
		p.active--
		p.completed++
		if !p.accepting && p.queue.empty() {
			p.drained.Broadcast()
		}
	}
}

// execute runs a dequeued task without holding any pool lock.
// Task errors and panics stop here.
func (w *worker) execute(t queuedTask) {
	p := w.pool

	p.inst.queued.Add(-1)
	p.inst.active.Add(1)
	start := time.Now()

	err := execTask(p.ctx, t.run)

	p.inst.duration.Record(time.Since(start).Seconds())
	p.inst.active.Add(-1)
	p.inst.completed.Add(1)

	if err == nil {
		return
	}

	p.inst.errors.Add(1)
	if errors.Is(err, ErrTaskPanicked) {
		p.inst.panics.Add(1)
	}
	w.report(newTaskTaggedError(err, t.index, w.id))
}

// report hands a task failure to the configured handler.
func (w *worker) report(err error) {
	p := w.pool

	if p.config.ErrorHandler == nil {
		idx, _ := ExtractTaskIndex(err)
		p.logger.Error("task failed",
			slog.Int("task", idx),
			slog.Int("worker", w.id),
			slog.Any("error", err),
		)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("error handler panicked", slog.Int("worker", w.id), slog.Any("panic", r))
		}
	}()
	p.config.ErrorHandler(err)
}
