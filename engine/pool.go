package engine

import (
	"errors"
	"sync"

	"github.com/encorelab/encore/logging"
)

// ErrQueueFull is returned when the pool's queue cannot accept more work
var ErrQueueFull = errors.New("worker pool queue is full")

// ErrPoolClosed is returned when submitting to a shut-down pool
var ErrPoolClosed = errors.New("worker pool is closed")

// Pool is a bounded worker pool: N workers draining a queue of capacity Q.
// The analysis pipeline itself is synchronous; the pool is how embedding
// services run multiple performances concurrently without unbounded
// goroutine growth.
type Pool struct {
	tasks  chan func()
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
	logger logging.Logger
}

// NewPool starts a pool with the given worker count and queue capacity
func NewPool(workers, queueCapacity int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueCapacity < 0 {
		queueCapacity = 0
	}

	p := &Pool{
		tasks: make(chan func(), queueCapacity),
		logger: logging.WithFields(logging.Fields{
			"component": "worker_pool",
			"workers":   workers,
		}),
	}

	for range workers {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}

	return p
}

// Submit enqueues a task without blocking. ErrQueueFull signals
// backpressure to the caller.
func (p *Pool) Submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		p.logger.Warn("Task rejected, queue full")
		return ErrQueueFull
	}
}

// Shutdown stops accepting work and waits for in-flight tasks
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	p.wg.Wait()
}
