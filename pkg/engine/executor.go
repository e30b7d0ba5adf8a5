package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Executor runs response handling and progress callbacks.
// Submit must not block the caller.
type Executor interface {
	Submit(task func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(task func())

// Submit calls f(task).
func (f ExecutorFunc) Submit(task func()) {
	f(task)
}

type goExecutor struct{}

func (goExecutor) Submit(task func()) {
	go task()
}

var shared Executor = goExecutor{}

// SharedExecutor returns the process-wide concurrent executor: every task
// runs on its own goroutine, in no particular order.
func SharedExecutor() Executor {
	return shared
}

// SerialExecutor runs tasks one at a time in submission order on a single
// goroutine. The queue is unbounded so Submit never blocks.
type SerialExecutor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewSerialExecutor starts the worker goroutine. Call Close to stop it.
func NewSerialExecutor() *SerialExecutor {
	s := &SerialExecutor{done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.loop()
	return s
}

// Submit enqueues task. After Close, tasks run on a fresh goroutine instead
// of being dropped, so pending futures still resolve.
func (s *SerialExecutor) Submit(task func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		go task()
		return
	}
	s.queue = append(s.queue, task)
	s.cond.Signal()
	s.mu.Unlock()
}

// Close waits for queued tasks to finish and stops the worker.
// It must not be called from inside a task.
func (s *SerialExecutor) Close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	<-s.done
}

func (s *SerialExecutor) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		task := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		task()
	}
}

// PoolExecutor runs at most n tasks at once. Tasks beyond the limit wait on
// their own goroutine, so Submit returns immediately.
type PoolExecutor struct {
	sem *semaphore.Weighted
}

// NewPoolExecutor creates a pool of size n; n < 1 is treated as 1.
func NewPoolExecutor(n int) *PoolExecutor {
	if n < 1 {
		n = 1
	}
	return &PoolExecutor{sem: semaphore.NewWeighted(int64(n))}
}

func (p *PoolExecutor) Submit(task func()) {
	go func() {
		// Acquire only fails on a done context.
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)
		task()
	}()
}
