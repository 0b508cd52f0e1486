package threadpool

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/ygrebnov/errorc"
)

// Pool is a fixed set of long-lived workers consuming a shared FIFO task queue.
//
// The queue, the lifecycle flags and the bookkeeping counters are guarded by a single
// mutex; two condition variables hang off it: notEmpty (work is available or shutdown
// began) and drained (the queue emptied after Shutdown stopped intake). The mutex is
// never held while a task runs.
//
// Methods are safe for concurrent use. A Pool must be created with New.
type Pool struct {
	// noCopy prevents accidental copying of the pool.
	//go:nocopy
	nc noCopy

	config *config
	ctx    context.Context
	logger *slog.Logger

	mu       sync.Mutex
	notEmpty *sync.Cond
	drained  *sync.Cond

	// guarded by mu
	queue        *taskQueue
	accepting    bool
	shuttingDown bool
	stopped      bool
	active       int
	seq          int
	completed    uint64
	rejected     uint64

	workers sync.WaitGroup

	inst instruments
}

// noCopy is a vet-recognized marker to discourage copying types with this field embedded.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// New creates a Pool and starts all of its workers before returning.
// ctx is handed to every task; the pool never cancels it.
func New(ctx context.Context, opts ...Option) (*Pool, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	p := &Pool{}
	p.initialize(ctx, &cfg)
	return p, nil
}

func (p *Pool) initialize(ctx context.Context, cfg *config) {
	p.config = cfg
	p.ctx = ctx
	p.logger = cfg.Logger
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.queue = newTaskQueue()
	p.notEmpty = sync.NewCond(&p.mu)
	p.drained = sync.NewCond(&p.mu)
	p.accepting = true
	p.inst = newInstruments(cfg.Metrics)

	p.workers.Add(cfg.Workers)
	for i := range cfg.Workers {
		w := newWorker(i, p)
		go func() {
			defer p.workers.Done()
			w.run()
		}()
	}

	p.logger.Debug("pool started", slog.Int("workers", cfg.Workers))
}

// Submit appends t to the queue and wakes one idle worker.
//
// Semantics:
// - Never blocks beyond a short critical section.
// - Returns ErrClosed once Shutdown has been called; the task is neither queued nor run.
// - Returns ErrResourceExhausted when a queue cap is configured and reached. Callers
//   should treat it as backpressure.
// - Returns ErrInvalidTask for a nil task.
func (p *Pool) Submit(t Task) error {
	if t == nil {
		return ErrInvalidTask
	}

	p.mu.Lock()
	if !p.accepting {
		p.rejected++
		state := p.stateLocked()
		p.mu.Unlock()
		p.inst.rejected.Add(1)
		return errorc.With(ErrClosed, errorc.String("state", state.String()))
	}
	if limit := p.config.MaxQueueLength; limit > 0 && p.queue.len() >= limit {
		p.rejected++
		p.mu.Unlock()
		p.inst.rejected.Add(1)
		return errorc.With(ErrResourceExhausted, errorc.String("max_queue_length", strconv.Itoa(limit)))
	}

	p.queue.enqueue(queuedTask{run: t, index: p.seq})
	p.seq++
	// Recorded before any worker can dequeue the task, so the gauge never goes negative.
	p.inst.submitted.Add(1)
	p.inst.queued.Add(1)
	p.notEmpty.Signal()
	p.mu.Unlock()
	return nil
}

// SubmitFunc is a shorthand for Submit(TaskFunc(fn)).
func (p *Pool) SubmitFunc(fn func()) error {
	return p.Submit(TaskFunc(fn))
}

// SubmitWithArg is a shorthand for p.Submit(TaskWithArg(fn, arg)).
func SubmitWithArg[A any](p *Pool, fn func(context.Context, A) error, arg A) error {
	return p.Submit(TaskWithArg(fn, arg))
}

// Workers returns the fixed number of workers.
func (p *Pool) Workers() int { return p.config.Workers }
