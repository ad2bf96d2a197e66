// Package flushpool implements the bounded concurrent flush pool (C3): a
// semaphore-gated worker pool that guarantees at most N submitted tasks
// are active at once, while never blocking the submitter.
package flushpool

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool gates concurrent execution of flush tasks behind N permits.
// Submit never blocks the caller: the task is spawned immediately and
// merely waits on the semaphore before doing its work.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// New creates a Pool allowing at most n tasks to run concurrently.
func New(n int64) *Pool {
	return &Pool{sem: semaphore.NewWeighted(n)}
}

// Submit spawns task in its own goroutine. The goroutine blocks on permit
// acquisition before running task, so at any instant no more than N tasks
// submitted to this Pool are actually executing. Submit itself returns
// immediately.
func (p *Pool) Submit(ctx context.Context, task func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if err := p.sem.Acquire(ctx, 1); err != nil {
			// context cancelled before a permit became available; the task
			// never runs, matching shutdown-on-signal behavior.
			return
		}
		defer p.sem.Release(1)

		task()
	}()
}

// WaitAll blocks until every task submitted so far has completed.
func (p *Pool) WaitAll() {
	p.wg.Wait()
}
