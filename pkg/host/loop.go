// Package host bridges the Keel runtime to its embedding shell.
//
// The shell is whatever hosts the compiled application: a browser page, a
// webview, or a test harness. The package provides the cooperative task
// queue the runtime's handlers run on ([Loop]), the method bridge the shell
// registers its capabilities on ([Bridge]), and the hard-navigation
// primitive built on top of it ([Navigator]).
package host

import (
	"context"
	"sync"

	"github.com/go-drift/keel/pkg/errors"
)

// Loop is a cooperative, single-goroutine task queue.
//
// Tasks may be posted from any goroutine but are executed strictly in FIFO
// order by the goroutine that calls Run. Handlers scheduled on the same Loop
// therefore never run concurrently with each other, which is what lets the
// recovery registry go without a lock: the chunk-failure observation and the
// navigation-failure delivery are tasks on one Loop, and the first always
// precedes the second.
type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool
	signal chan struct{} // signals task availability (buffered, size 1)
}

// NewLoop creates an empty task loop.
func NewLoop() *Loop {
	return &Loop{
		tasks:  make([]func(), 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Post schedules a task at the back of the queue.
// Safe to call from any goroutine. Returns false if the loop is closed
// or the task is nil.
func (l *Loop) Post(task func()) bool {
	if task == nil {
		return false
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
	return true
}

// Run executes tasks in FIFO order until the context is canceled or the
// loop is closed. Run must be called from exactly one goroutine.
// A panicking task is reported via errors.ReportPanic and does not stop
// the loop.
func (l *Loop) Run(ctx context.Context) error {
	for {
		task, ok := l.next()
		if ok {
			l.invoke(task)
			continue
		}

		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.signal:
		}
	}
}

// RunUntilIdle executes all currently queued tasks on the calling goroutine,
// including tasks queued by the tasks themselves, and returns when the queue
// is empty. Intended for tests and synchronous drains.
func (l *Loop) RunUntilIdle() {
	for {
		task, ok := l.next()
		if !ok {
			return
		}
		l.invoke(task)
	}
}

// Close stops the loop. Pending tasks are discarded; Run returns after the
// current task finishes.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.tasks = nil
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 {
		return nil, false
	}
	task := l.tasks[0]
	l.tasks = l.tasks[1:]
	return task, true
}

func (l *Loop) invoke(task func()) {
	defer errors.Recover("host.Loop.Run")
	task()
}
