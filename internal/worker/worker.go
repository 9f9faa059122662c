package worker

import (
	"context"
	"errors"
	"sync"
)

type Job interface{}

type ProcessFunc func(ctx context.Context, job Job) error

// WorkerPool runs submitted jobs on a fixed number of goroutines. Errors
// returned by the processor are collected and reported by Stop.
type WorkerPool struct {
	numWorkers int
	jobs       chan Job
	processor  ProcessFunc
	wg         sync.WaitGroup

	mu   sync.Mutex
	errs []error
}

func NewWorkerPool(numWorkers int, bufferSize int, processor ProcessFunc) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan Job, bufferSize),
		processor:  processor,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			if err := wp.processor(ctx, job); err != nil {
				wp.mu.Lock()
				wp.errs = append(wp.errs, err)
				wp.mu.Unlock()
			}
		}
	}
}

func (wp *WorkerPool) Submit(job Job) {
	wp.jobs <- job
}

// Stop closes the queue, waits for the workers and returns the joined
// processor errors, if any.
func (wp *WorkerPool) Stop() error {
	close(wp.jobs)
	wp.wg.Wait()

	wp.mu.Lock()
	defer wp.mu.Unlock()
	return errors.Join(wp.errs...)
}
