package pool

import "sync"

type dynamic[T any] struct {
	p     sync.Pool
	reset func(T)
}

// NewDynamic returns an unbounded Pool backed by sync.Pool.
// reset, if non-nil, is applied to each value on Put.
func NewDynamic[T any](newFn func() T, reset func(T)) Pool[T] {
	return &dynamic[T]{
		p:     sync.Pool{New: func() any { return newFn() }},
		reset: reset,
	}
}

func (d *dynamic[T]) Get() T { return d.p.Get().(T) }

func (d *dynamic[T]) Put(v T) {
	if d.reset != nil {
		d.reset(v)
	}
	d.p.Put(v)
}
