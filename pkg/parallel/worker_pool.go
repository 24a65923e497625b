// Package parallel runs independent per-node reductions (adjacency sorting,
// region classification) on a bounded set of goroutines. Work is split into
// disjoint index ranges so results can be merged by dense index without
// locks, keeping output independent of scheduling.
package parallel

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of worker goroutines
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu

	panicMu  sync.Mutex
	panicErr error
}

// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
var ErrTooManyWorkers = errors.New("worker count exceeds maximum")

// ErrTaskPanicked is wrapped by Close when a submitted task panicked.
var ErrTaskPanicked = errors.New("task panicked")

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// DefaultWorkers returns the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// NewWorkerPool creates a new worker pool with specified number of workers.
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
	}

	for i := 0; i < pool.workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool, nil
}

// Workers returns the number of goroutines in the pool
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		wp.run(task)
	}
}

func (wp *WorkerPool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			wp.panicMu.Lock()
			if wp.panicErr == nil {
				wp.panicErr = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			}
			wp.panicMu.Unlock()
		}
	}()
	task()
}

// Submit adds a task to the worker pool.
// Returns false if the pool is closed, true if task was submitted
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}
	wp.taskQueue <- task
	return true
}

// Close shuts down the pool, waits for queued tasks and returns the first
// task panic, if any.
func (wp *WorkerPool) Close() error {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()

	wp.panicMu.Lock()
	defer wp.panicMu.Unlock()
	return wp.panicErr
}

// ForEachRange splits [0, n) into contiguous chunks and calls fn for each
// chunk on a temporary pool. fn must only write to indices inside its range.
func ForEachRange(n, workers int, fn func(lo, hi int)) error {
	if n <= 0 {
		return nil
	}

	pool, err := NewWorkerPool(workers)
	if err != nil {
		return err
	}

	chunk := chunkSize(n, pool.Workers())
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		lo, hi := lo, hi
		pool.Submit(func() { fn(lo, hi) })
	}
	return pool.Close()
}

// chunkSize divides n items over the workers, overflow-safe
func chunkSize(n, workers int) int {
	if workers < 1 {
		workers = 1
	}
	size := int((int64(n) + int64(workers) - 1) / int64(workers))
	if size < 1 {
		size = 1
	}
	return size
}
