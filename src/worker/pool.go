package worker

import (
	"context"
	"log"
	"runtime"
	"sync"
)

// Job is one unit of work. It must honor ctx.
type Job func(ctx context.Context) error

// ResultCallback is invoked on job completion from a worker goroutine.
// Callers that own single-threaded state should post the result back
// rather than touching that state here.
type ResultCallback func(err error)

// Pool is a fixed-size worker pool with a bounded input queue.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx context.Context
	run Job
	cb  ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0; the queue
// holds at least one job.
func New(size, queue int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if queue <= 0 {
		queue = 1
	}
	p := &Pool{jobs: make(chan job, queue)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for j := range p.jobs {
				err := run(j)
				if err != nil {
					log.Printf("Worker %d: job failed: %v", id, err)
				}
				if j.cb != nil {
					j.cb(err)
				}
			}
		}(i)
	}
}

// run skips jobs whose context expired while they were queued.
func run(j job) error {
	if err := j.ctx.Err(); err != nil {
		return err
	}
	return j.run(j.ctx)
}

// Submit enqueues a job, waiting for a free queue slot until ctx is done.
func (p *Pool) Submit(ctx context.Context, run Job, cb ResultCallback) error {
	select {
	case p.jobs <- job{ctx: ctx, run: run, cb: cb}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit enqueues a job only if the queue has room. Returns false if dropped.
func (p *Pool) TrySubmit(ctx context.Context, run Job, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, run: run, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining queued work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
