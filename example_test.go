package threadpool_test

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ygrebnov/threadpool"
	"github.com/ygrebnov/threadpool/metrics"
)

// ExampleNew creates a fixed pool, submits work and shuts it down.
// Shutdown returns only after every accepted task has run.
func ExampleNew() {
	p, err := threadpool.New(context.Background(), threadpool.WithWorkers(4))
	if err != nil {
		fmt.Println(err)
		return
	}

	var counter atomic.Int64
	for range 100 {
		_ = p.SubmitFunc(func() { counter.Add(1) })
	}

	_ = p.Shutdown()
	fmt.Println(counter.Load())
	fmt.Println(p.SubmitFunc(func() {}) != nil)

	// Output:
	// 100
	// true
}

// ExampleTaskWithArg moves an argument into a task.
func ExampleTaskWithArg() {
	p, _ := threadpool.New(context.Background(), threadpool.WithWorkers(1))

	greet := func(_ context.Context, name string) error {
		fmt.Println("hello,", name)
		return nil
	}
	_ = p.Submit(threadpool.TaskWithArg(greet, "gopher"))
	_ = p.Shutdown()

	// Output:
	// hello, gopher
}

// ExampleWithMetrics wires the in-memory provider.
func ExampleWithMetrics() {
	prov := metrics.NewBasicProvider()
	p, _ := threadpool.New(context.Background(), threadpool.WithWorkers(2), threadpool.WithMetrics(prov))

	for range 3 {
		_ = p.SubmitFunc(func() {})
	}
	_ = p.Shutdown()

	fmt.Println(prov.CounterValue(threadpool.MetricTasksCompleted))

	// Output:
	// 3
}
