package threadpool_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ygrebnov/threadpool"
)

func BenchmarkPool(b *testing.B) {
	tests := []struct {
		name    string
		workers int
		tasks   int
		work    time.Duration
	}{
		// few long tasks
		{"w4_n8_wait50us", 4, 8, 50 * time.Microsecond},
		{"w16_n8_wait50us", 16, 8, 50 * time.Microsecond},

		// many short tasks
		{"w4_n256_nowait", 4, 256, 0},
		{"w16_n256_nowait", 16, 256, 0},
		{"w1_n256_nowait", 1, 256, 0},
	}
	for _, test := range tests {
		b.Run(test.name, func(b *testing.B) {
			for range b.N {
				p, err := threadpool.New(context.Background(), threadpool.WithWorkers(test.workers))
				if err != nil {
					b.Fatal(err)
				}
				for range test.tasks {
					err := p.SubmitFunc(func() {
						if test.work > 0 {
							time.Sleep(test.work)
						}
					})
					if err != nil {
						b.Fatal(err)
					}
				}
				if err := p.Shutdown(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSubmit_Contended(b *testing.B) {
	p, err := threadpool.New(context.Background(), threadpool.WithWorkers(8))
	if err != nil {
		b.Fatal(err)
	}
	var done sync.WaitGroup
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			done.Add(1)
			if err := p.SubmitFunc(done.Done); err != nil {
				b.Error(err)
				done.Done()
			}
		}
	})
	done.Wait()
	b.StopTimer()
	_ = p.Shutdown()
}
