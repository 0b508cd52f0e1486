package threadpool

import "github.com/eapache/queue"

// taskQueue is the pool's FIFO backlog.
// It is not synchronized: every method is called with Pool.mu held.
type taskQueue struct {
	buf *queue.Queue
}

func newTaskQueue() *taskQueue {
	return &taskQueue{buf: queue.New()}
}

// enqueue appends t at the tail.
func (q *taskQueue) enqueue(t queuedTask) {
	q.buf.Add(t)
}

// dequeue removes and returns the head, or reports false when the queue is empty.
func (q *taskQueue) dequeue() (queuedTask, bool) {
	if q.buf.Length() == 0 {
		return queuedTask{}, false
	}
	return q.buf.Remove().(queuedTask), true
}

func (q *taskQueue) len() int { return q.buf.Length() }

func (q *taskQueue) empty() bool { return q.buf.Length() == 0 }
