package workerpool

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("worker pool is closed")

// Task is a unit of work. Fn must be safe to run concurrently with other
// tasks; ResultC, when set, receives exactly one Result.
type Task struct {
	Fn      func(ctx context.Context) (any, error)
	ResultC chan Result
}

type Result struct {
	Value any
	Err   error
}

type WorkerPool struct {
	tasks  chan Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts workerCount workers reading from a queue of queueSize.
func NewWorkerPool(workerCount int, queueSize int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	wp := &WorkerPool{
		tasks:  make(chan Task, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	wp.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go wp.worker()
	}
	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.ctx.Done():
			return
		case task, ok := <-wp.tasks:
			if !ok {
				return
			}
			res, err := task.Fn(wp.ctx)
			if task.ResultC != nil {
				task.ResultC <- Result{Value: res, Err: err}
			}
		}
	}
}

// Submit queues the task, blocking while the queue is full. It gives up when
// ctx is done or the pool is closed.
func (wp *WorkerPool) Submit(ctx context.Context, task Task) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrClosed
	}
	select {
	case wp.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.ctx.Done():
		return ErrClosed
	}
}

// Close stops the workers and waits for running tasks to return.
func (wp *WorkerPool) Close() {
	wp.cancel()
	wp.mu.Lock()
	if !wp.closed {
		wp.closed = true
		close(wp.tasks)
	}
	wp.mu.Unlock()
	wp.wg.Wait()
}
