package threadpool

import (
	"context"
	"errors"
	"sync"
)

// ForEach applies fn to each item on the workers of p and waits for all of them.
// It returns errors.Join of every fn error (panics included) and, if submission stopped
// early, the reason it stopped. p keeps running afterwards; ForEach never shuts it down.
func ForEach[T any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) error) error {
	if len(items) == 0 {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	collect := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for i := range items {
		if err := ctx.Err(); err != nil {
			collect(err)
			break
		}

		item := items[i]
		wg.Add(1)
		err := p.Submit(func(context.Context) error {
			defer wg.Done()
			if err := execTask(ctx, func(c context.Context) error { return fn(c, item) }); err != nil {
				collect(err)
			}
			return nil
		})
		if err != nil {
			wg.Done()
			collect(err)
			break
		}
	}

	wg.Wait()
	return errors.Join(errs...)
}
