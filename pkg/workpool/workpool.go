// Package workpool implements spec.md §4.J's scoped worker pool: a
// fixed-size set of goroutines draining a task list with throttled
// progress reporting and cooperative cancellation at task boundaries.
//
// Grounded on the teacher's pkg/renderer/worker_pool.go for the
// fixed-worker-count, one-task-per-dispatch shape, generalized here to
// use golang.org/x/sync/errgroup (already a project dependency) rather
// than the teacher's hand-rolled channel/WaitGroup plumbing — the
// teacher predates errgroup.Group.SetLimit, this module doesn't need to.
package workpool

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pool bounds how many tasks run concurrently.
type Pool struct {
	Workers int
}

// New returns a Pool sized to workers, or runtime.NumCPU() if workers
// is not positive.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{Workers: workers}
}

// Run executes fn once per task across the pool's worker budget,
// collecting one result per task. Progress is reported via onProgress
// (nil is fine) no more than once per progressInterval, per spec.md
// §4.J's "progress callback throttled to at least 500ms between
// calls". Cancelling ctx stops dispatching new tasks and Run returns
// ctx.Err(); tasks already in flight still complete.
func Run[T any, R any](ctx context.Context, pool *Pool, tasks []T, fn func(context.Context, T) (R, error), onProgress func(done, total int)) ([]R, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pool.Workers)

	results := make([]R, len(tasks))
	var completed int64
	var lastReport int64 // unix nanos, accessed only via atomic

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			r, err := fn(gctx, task)
			if err != nil {
				return err
			}
			results[i] = r

			done := atomic.AddInt64(&completed, 1)
			if onProgress != nil {
				reportProgress(&lastReport, done, int64(len(tasks)), onProgress)
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

const progressInterval = 500 * time.Millisecond

func reportProgress(lastReport *int64, done, total int64, onProgress func(done, total int)) {
	now := time.Now().UnixNano()
	last := atomic.LoadInt64(lastReport)
	if done < total && now-last < int64(progressInterval) {
		return
	}
	if !atomic.CompareAndSwapInt64(lastReport, last, now) && done < total {
		return
	}
	onProgress(int(done), int(total))
}
