package threadpool

import "log/slog"

// State is the lifecycle phase of a Pool.
type State int

const (
	// StateActive accepts and executes tasks.
	StateActive State = iota
	// StateDraining rejects new tasks and executes the queued ones.
	StateDraining
	// StateStopped has joined all workers.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Shutdown stops intake, waits for every queued task to run, then stops and joins
// all workers.
//
// Sequence:
// 1) under the lock, stop accepting (Submit returns ErrClosed from here on)
// 2) wait on drained until the queue is empty
// 3) set shuttingDown, release the lock, wake every idle worker
// 4) join workers outside the lock; tasks that were running finish first
//
// Every task accepted by Submit has executed exactly once when Shutdown returns nil.
// Shutdown may be called once per Pool. Any later call, including one racing with a
// Shutdown still in progress, returns ErrAlreadyShutdown immediately.
func (p *Pool) Shutdown() error {
	p.mu.Lock()
	if !p.accepting {
		p.mu.Unlock()
		return ErrAlreadyShutdown
	}
	p.accepting = false

	pending := p.queue.len()
	for !p.queue.empty() {
		p.drained.Wait()
	}

	p.shuttingDown = true
	p.mu.Unlock()

	p.notEmpty.Broadcast()
	p.workers.Wait()

	p.mu.Lock()
	p.stopped = true
	completed := p.completed
	p.mu.Unlock()

	p.logger.Debug("pool stopped",
		slog.Int("drained", pending),
		slog.Uint64("completed", completed),
	)
	return nil
}

// State reports the current lifecycle phase.
func (p *Pool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Pool) stateLocked() State {
	switch {
	case p.stopped:
		return StateStopped
	case !p.accepting:
		return StateDraining
	default:
		return StateActive
	}
}

// Stats is a point-in-time snapshot of pool bookkeeping.
type Stats struct {
	Workers   int
	Queued    int
	Active    int
	Submitted int
	Completed uint64
	Rejected  uint64
	State     State
}

// Stats returns a consistent snapshot taken under the pool lock.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Workers:   p.config.Workers,
		Queued:    p.queue.len(),
		Active:    p.active,
		Submitted: p.seq,
		Completed: p.completed,
		Rejected:  p.rejected,
		State:     p.stateLocked(),
	}
}
