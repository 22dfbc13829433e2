package task

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many tasks may be doing CPU/IO work concurrently,
// grounded on the teacher's make(chan struct{}, par) semaphore idiom in
// app/plugin_lifecycle.go, expressed with golang.org/x/sync/semaphore
// instead of a hand-rolled channel. Acquiring a slot is itself a
// suspension point per spec.md §5.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool builds a Pool with the given capacity. A non-positive capacity
// defaults to GOMAXPROCS*4, a reasonable default for I/O-bound work.
func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		capacity = runtime.GOMAXPROCS(0) * 4
	}
	return &Pool{sem: semaphore.NewWeighted(int64(capacity))}
}

// Acquire blocks until a slot is available or ctx is done.
func (p *Pool) Acquire(ctx context.Context) error {
	return p.sem.Acquire(ctx, 1)
}

// Release returns a slot to the pool.
func (p *Pool) Release() {
	p.sem.Release(1)
}
