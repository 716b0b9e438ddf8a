// Package worker runs gateway calls on a bounded pool of background
// goroutines so they never block the interaction goroutine that owns the
// cache.
package worker

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrBusy is returned when the pending-task queue is full. Callers treat
// the dispatch as a failed operation rather than blocking.
var ErrBusy = errors.New("worker pool queue full")

// ErrStopped is returned when submitting to a stopped pool.
var ErrStopped = errors.New("worker pool stopped")

// Pool is a fixed-size worker pool with a bounded task queue.
type Pool struct {
	tasks   chan func()
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
	logger  *zap.Logger
}

// NewPool starts size workers sharing a queue of queueSize pending tasks.
func NewPool(size, queueSize int, logger *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	p := &Pool{
		tasks:  make(chan func(), queueSize),
		logger: logger,
	}

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for task := range p.tasks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("worker task panicked",
						zap.Int("worker", id),
						zap.Any("panic", r))
				}
			}()
			task()
		}()
	}
}

// Submit enqueues a task without blocking. ErrBusy is returned when the
// queue is full, ErrStopped after Stop.
func (p *Pool) Submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrBusy
	}
}

// Stop closes the queue and waits for running tasks to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}
