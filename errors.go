package threadpool

import "errors"

const Namespace = "threadpool"

var (
	ErrInvalidConfig     = errors.New(Namespace + ": invalid configuration")
	ErrClosed            = errors.New(Namespace + ": pool is closing, task rejected")
	ErrResourceExhausted = errors.New(Namespace + ": task queue exhausted, task rejected")
	ErrAlreadyShutdown   = errors.New(Namespace + ": shutdown already requested")
	ErrInvalidTask       = errors.New(Namespace + ": invalid task")
	ErrTaskPanicked      = errors.New(Namespace + ": task execution panicked")
)
