package threadpool

import "github.com/ygrebnov/threadpool/metrics"

// Instrument names registered by every Pool.
const (
	MetricTasksSubmitted = "threadpool_tasks_submitted_total"
	MetricTasksRejected  = "threadpool_tasks_rejected_total"
	MetricTasksCompleted = "threadpool_tasks_completed_total"
	MetricTasksErrors    = "threadpool_tasks_errors_total"
	MetricTasksPanics    = "threadpool_tasks_panics_total"
	MetricQueueLength    = "threadpool_queue_length"
	MetricTasksActive    = "threadpool_tasks_active"
	MetricTaskDuration   = "threadpool_task_duration_seconds"
)

type instruments struct {
	submitted metrics.Counter
	rejected  metrics.Counter
	completed metrics.Counter
	errors    metrics.Counter
	panics    metrics.Counter
	queued    metrics.UpDownCounter
	active    metrics.UpDownCounter
	duration  metrics.Histogram
}

func newInstruments(p metrics.Provider) instruments {
	if p == nil {
		p = metrics.NoopProvider{}
	}
	count := metrics.WithUnit("1")
	return instruments{
		submitted: p.Counter(MetricTasksSubmitted, count, metrics.WithDescription("Tasks accepted by Submit")),
		rejected:  p.Counter(MetricTasksRejected, count, metrics.WithDescription("Tasks rejected by Submit")),
		completed: p.Counter(MetricTasksCompleted, count, metrics.WithDescription("Tasks executed by workers")),
		errors:    p.Counter(MetricTasksErrors, count, metrics.WithDescription("Tasks that returned an error or panicked")),
		panics:    p.Counter(MetricTasksPanics, count, metrics.WithDescription("Tasks that panicked")),
		queued:    p.UpDownCounter(MetricQueueLength, count, metrics.WithDescription("Tasks waiting in the queue")),
		active:    p.UpDownCounter(MetricTasksActive, count, metrics.WithDescription("Tasks currently executing")),
		duration: p.Histogram(MetricTaskDuration,
			metrics.WithUnit("seconds"), metrics.WithDescription("Task execution time")),
	}
}
