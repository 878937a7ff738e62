// Package queue provides a FIFO command queue that runs asynchronous tasks
// one at a time, in submission order.
//
// A transport owns one queue and routes every call that mutates its engine
// through it. Tasks never overlap: each runs to completion, successfully or
// not, before the next one starts. A failing task only fails its own caller.
//
// Close stops the queue. A task already running finishes. Tasks still waiting
// and tasks submitted later fail with ErrClosed without running.
//
// A caller whose context ends gets ctx.Err() only while its task is still
// waiting; the task is then skipped. Once a task runs, its caller always gets
// the task's own outcome.
package queue

import (
	"context"
	"sync"

	"github.com/pion/logging"
)

// Func is a unit of work. ctx is the context the task was submitted with.
type Func func(ctx context.Context) (any, error)

// Config configures a Queue.
type Config struct {
	// Name identifies the queue in logs.
	Name string

	// LoggerFactory is the factory for creating loggers.
	// If nil, the default pion logger factory is used.
	LoggerFactory logging.LoggerFactory
}

// Queue serializes tasks. The zero value is not usable; use New.
type Queue struct {
	name string
	log  logging.LeveledLogger

	mu      sync.Mutex
	tasks   []*task
	running bool
	closed  bool

	wakeCh  chan struct{}
	closeCh chan struct{}
}

type task struct {
	ctx     context.Context
	name    string
	fn      Func
	pending *Pending
}

// New creates a queue and starts its worker.
func New(config Config) *Queue {
	factory := config.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}

	q := &Queue{
		name:    config.Name,
		log:     factory.NewLogger("queue"),
		wakeCh:  make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}
	go q.loop()
	return q
}

// Enqueue appends a task and returns a handle to its outcome. It never blocks.
func (q *Queue) Enqueue(ctx context.Context, name string, fn Func) *Pending {
	p := newPending()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		p.complete(nil, ErrClosed)
		return p
	}
	q.tasks = append(q.tasks, &task{ctx: ctx, name: name, fn: fn, pending: p})
	q.mu.Unlock()

	select {
	case q.wakeCh <- struct{}{}:
	default:
	}
	return p
}

// Push enqueues a task and waits for its outcome.
func (q *Queue) Push(ctx context.Context, name string, fn Func) (any, error) {
	return q.Enqueue(ctx, name, fn).Wait(ctx)
}

// Run is Push with a typed result.
func Run[T any](ctx context.Context, q *Queue, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	res, err := q.Push(ctx, name, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

// Len returns the number of tasks waiting to run, excluding a running task.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Busy returns true while a task is running.
func (q *Queue) Busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Closed returns true once Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops the queue. It does not wait for a running task, so it is safe
// to call from inside one. Calling Close more than once is a no-op.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	waiting := q.tasks
	q.tasks = nil
	close(q.closeCh)
	q.mu.Unlock()

	if len(waiting) > 0 {
		q.log.Debugf("%s: closed with %d waiting tasks", q.name, len(waiting))
	}
	for _, t := range waiting {
		t.pending.complete(nil, ErrClosed)
	}
}

func (q *Queue) loop() {
	for {
		select {
		case <-q.closeCh:
			return
		case <-q.wakeCh:
		}

		for {
			t := q.next()
			if t == nil {
				break
			}
			q.run(t)
		}
	}
}

// next pops the first waiting task and marks the queue busy.
func (q *Queue) next() *task {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.running = false
	if q.closed || len(q.tasks) == 0 {
		return nil
	}
	t := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	q.running = true
	return t
}

func (q *Queue) run(t *task) {
	if err := t.pending.start(); err != nil {
		q.log.Debugf("%s: skipping %s: abandoned: %v", q.name, t.name, err)
		t.pending.complete(nil, err)
		return
	}
	if err := t.ctx.Err(); err != nil {
		q.log.Debugf("%s: skipping %s: %v", q.name, t.name, err)
		t.pending.complete(nil, err)
		return
	}

	q.log.Tracef("%s: running %s", q.name, t.name)
	res, err := t.fn(t.ctx)
	if err != nil {
		q.log.Debugf("%s: %s failed: %v", q.name, t.name, err)
	}
	t.pending.complete(res, err)
}
