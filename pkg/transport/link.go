package transport

import (
	"context"
	"sync/atomic"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/queue"
	"github.com/pion/logging"
)

// link is what a flow uses of its transport: the queue, the handler and the
// closed flag. Flows hold no reference to the Transport itself.
type link struct {
	queue      *queue.Queue
	handler    handler.Handler
	log        logging.LeveledLogger
	closed     *atomic.Bool
	unregister func()
}

// push runs fn on the transport queue and waits for it.
func (l *link) push(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if l.closed.Load() {
		return ErrClosed
	}
	_, err := l.queue.Push(ctx, name, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// release unregisters the flow and queues fn to free its handler resource.
// Nothing is queued once the transport is closed, since closing the handler
// frees everything. Errors of fn are logged, not returned.
func (l *link) release(name string, fn func(ctx context.Context) error) {
	l.unregister()
	if l.closed.Load() || fn == nil {
		return
	}
	l.queue.Enqueue(context.Background(), name, func(ctx context.Context) (any, error) {
		if err := fn(ctx); err != nil {
			l.log.Warnf("%s failed: %v", name, err)
		}
		return nil, nil
	})
}
