package workerpool

import (
	"context"
	"sync"
)

// Pool runs submitted jobs on a bounded set of goroutines. Jobs receive
// the pool's context; a canceled context drains the queue without running
// the remaining jobs.
type Pool struct {
	jobs chan func(ctx context.Context)
	wg   sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

// New starts workers goroutines consuming from an internal queue of the
// given size. workers < 1 falls back to 1.
func New(ctx context.Context, workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	pctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		jobs:   make(chan func(ctx context.Context), queueSize),
		ctx:    pctx,
		cancel: cancel,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		if p.ctx.Err() != nil {
			continue // drain without running
		}
		job(p.ctx)
	}
}

// Submit enqueues a job. Blocks when the queue is full; returns false
// when the pool is shutting down.
func (p *Pool) Submit(job func(ctx context.Context)) bool {
	select {
	case <-p.ctx.Done():
		return false
	default:
	}
	select {
	case p.jobs <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Close stops intake and blocks until every submitted job has finished.
// The caller must not submit once Close is in progress.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}

// Shutdown cancels in-flight job contexts and waits for workers to exit.
func (p *Pool) Shutdown() {
	p.cancel()
	p.Close()
}
