package worker

import (
	"context"
	"sync"
	"sync/atomic"
)

// Pool runs a function over a set of partition keys with bounded
// parallelism. Each key is handed to exactly one worker; workers share no
// mutable state, so the caller's per-key outputs can be merged in any
// order afterwards.
type Pool struct {
	workers int

	processed int64
	failed    int64
}

// NewPool creates a pool with the given worker count (minimum 1).
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Map feeds every key to fn across the pool's workers. The first error
// cancels the remaining work and is returned; already-completed keys are
// unaffected.
func (p *Pool) Map(ctx context.Context, keys []string, fn func(ctx context.Context, key string) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				if ctx.Err() != nil {
					return
				}
				if err := fn(ctx, key); err != nil {
					atomic.AddInt64(&p.failed, 1)
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
				atomic.AddInt64(&p.processed, 1)
			}
		}()
	}

feed:
	for _, key := range keys {
		select {
		case jobs <- key:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// Stats returns processed/failed counters for the pool's lifetime.
func (p *Pool) Stats() (processed, failed int64) {
	return atomic.LoadInt64(&p.processed), atomic.LoadInt64(&p.failed)
}
