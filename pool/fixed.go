package pool

import "sync/atomic"

type fixed[T any] struct {
	available chan T
	created   atomic.Int64
	capacity  int64
	newFn     func() T
	reset     func(T)
}

// NewFixed returns a Pool that creates at most capacity values. Once all of them are
// out, Get blocks until one is returned with Put.
func NewFixed[T any](capacity uint, newFn func() T, reset func(T)) Pool[T] {
	return &fixed[T]{
		available: make(chan T, capacity),
		capacity:  int64(capacity),
		newFn:     newFn,
		reset:     reset,
	}
}

func (p *fixed[T]) Get() T {
	select {
	case v := <-p.available:
		return v
	default:
	}

	for {
		n := p.created.Load()
		if n >= p.capacity {
			break
		}
		if p.created.CompareAndSwap(n, n+1) {
			return p.newFn()
		}
	}

	return <-p.available
}

func (p *fixed[T]) Put(v T) {
	if p.reset != nil {
		p.reset(v)
	}
	p.available <- v
}
