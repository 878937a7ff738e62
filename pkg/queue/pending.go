package queue

import (
	"context"
	"sync"
)

// Pending is the outcome of an enqueued task.
type Pending struct {
	done   chan struct{}
	result any
	err    error

	mu        sync.Mutex
	started   bool
	abandoned error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) complete(result any, err error) {
	p.result = result
	p.err = err
	close(p.done)
}

// start marks the task as running. If a waiter gave up on the task before it
// started, start returns the waiter's error instead.
func (p *Pending) start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.abandoned != nil {
		return p.abandoned
	}
	p.started = true
	return nil
}

// abandon gives up on a task that has not started yet. It returns false once
// the task is running.
func (p *Pending) abandon(err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return false
	}
	p.abandoned = err
	return true
}

// Done is closed when the task has finished or was rejected.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the task has finished and returns its outcome.
//
// If ctx ends while the task is still waiting, Wait returns ctx.Err() and the
// task is skipped. A task that already started is never abandoned: Wait then
// blocks until it finishes and returns its own outcome, so a caller never
// sees an error for work that took effect.
func (p *Pending) Wait(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
	}
	if err := ctx.Err(); p.abandon(err) {
		return nil, err
	}
	<-p.done
	return p.result, p.err
}

// Err waits for the task and returns its error.
func (p *Pending) Err() error {
	<-p.done
	return p.err
}
