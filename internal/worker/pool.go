package worker

import (
	"context"
	"sync"
)

// Job is a unit of work executed on a pool worker.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of a job.
type Result interface {
	GetError() error
}

// Pool runs jobs on a fixed number of goroutines.
type Pool struct {
	workers      int
	jobs         chan Job
	results      chan Result
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
	closeJobs    sync.Once
	closeResults sync.Once
}

// NewPool creates a pool with the given worker count, minimum 1.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers: workers,
		jobs:    make(chan Job, workers*2),
		results: make(chan Result, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. Blocks if the queue is full.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- job:
	}
}

// Close signals that no more jobs will be submitted. Workers exit once
// the queue drains. Safe to call more than once.
func (p *Pool) Close() {
	p.closeJobs.Do(func() { close(p.jobs) })
}

// Wait drains all results and returns them in completion order. The
// producer must call Close when submission is finished; Wait may run
// concurrently with submission, so results are consumed while jobs are
// still being queued.
func (p *Pool) Wait() []Result {
	go func() {
		p.wg.Wait()
		p.finishResults()
	}()

	var results []Result
	for result := range p.results {
		results = append(results, result)
	}
	return results
}

// Shutdown cancels outstanding work and waits for workers to exit.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.finishResults()
}

func (p *Pool) finishResults() {
	p.closeResults.Do(func() { close(p.results) })
}
