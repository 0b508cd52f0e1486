package threadpool

import (
	"errors"
	"fmt"
)

// TaskMetaError exposes correlation metadata for a task failure.
type TaskMetaError interface {
	error
	Unwrap() error
	TaskIndex() (int, bool)
	WorkerID() (int, bool)
}

type taskTaggedError struct {
	err    error
	index  int
	worker int
}

func newTaskTaggedError(err error, index, worker int) error {
	if err == nil {
		return nil
	}
	return &taskTaggedError{err: err, index: index, worker: worker}
}

func (e *taskTaggedError) Error() string { return e.err.Error() }
func (e *taskTaggedError) Unwrap() error { return e.err }

// TaskIndex returns the 0-based submission index of the failed task.
func (e *taskTaggedError) TaskIndex() (int, bool) { return e.index, true }

// WorkerID returns the id of the worker that executed the task.
func (e *taskTaggedError) WorkerID() (int, bool) { return e.worker, true }

func (e *taskTaggedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "task(index=%d,worker=%d): %+v", e.index, e.worker, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractTaskIndex returns the submission index carried by err if present.
func ExtractTaskIndex(err error) (int, bool) {
	var tme TaskMetaError
	if errors.As(err, &tme) {
		return tme.TaskIndex()
	}
	return 0, false
}

// ExtractWorkerID returns the executing worker id carried by err if present.
func ExtractWorkerID(err error) (int, bool) {
	var tme TaskMetaError
	if errors.As(err, &tme) {
		return tme.WorkerID()
	}
	return 0, false
}
