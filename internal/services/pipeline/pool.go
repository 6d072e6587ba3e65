package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrPoolClosed = errors.New("worker pool closed")

// WorkerPool runs CPU-bound work on a fixed set of goroutines so codec work
// never runs on the goroutine serving a request.
type WorkerPool struct {
	tasks   chan func()
	closed  chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	workers int
}

func NewWorkerPool(workers int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}

	p := &WorkerPool{
		tasks:   make(chan func()),
		closed:  make(chan struct{}),
		workers: workers,
	}

	for w := 0; w < workers; w++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case task := <-p.tasks:
					task()
				case <-p.closed:
					return
				}
			}
		}()
	}

	return p
}

func (p *WorkerPool) Size() int {
	return p.workers
}

// Do runs fn on a pool worker and waits for it. ctx only bounds the wait
// for a free worker; once fn starts it runs to completion. A panic in fn is
// returned as an error.
func (p *WorkerPool) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in worker: %v", r)
			}
		}()
		done <- fn()
	}

	select {
	case p.tasks <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closed:
		return ErrPoolClosed
	}

	return <-done
}

// Close stops the workers after their current task.
func (p *WorkerPool) Close() {
	p.once.Do(func() {
		close(p.closed)
	})
	p.wg.Wait()
}
