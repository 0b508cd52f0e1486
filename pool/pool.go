// Package pool provides typed object pools used to recycle per-connection buffers.
package pool

// Pool hands out reusable values of type T.
type Pool[T any] interface {
	// Get returns a value from the pool, creating one if allowed.
	Get() T

	// Put returns a value to the pool.
	Put(T)
}
