package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/pion/logging"
	"github.com/pion/transport/v3/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue() *Queue {
	return New(Config{Name: "test", LoggerFactory: logging.NewDefaultLoggerFactory()})
}

func TestQueueOrder(t *testing.T) {
	defer test.CheckRoutines(t)()

	q := newTestQueue()
	defer q.Close()

	var (
		mu     sync.Mutex
		order  []int
		active int32
	)

	pendings := make([]*Pending, 0, 20)
	for i := 0; i < 20; i++ {
		i := i
		pendings = append(pendings, q.Enqueue(context.Background(), "task", func(ctx context.Context) (any, error) {
			if n := atomic.AddInt32(&active, 1); n != 1 {
				t.Errorf("active tasks = %d, want 1", n)
			}
			time.Sleep(time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			atomic.AddInt32(&active, -1)
			return i, nil
		}))
	}

	for i, p := range pendings {
		res, err := p.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, i, res)
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestQueueErrorDoesNotPoison(t *testing.T) {
	defer test.CheckRoutines(t)()

	q := newTestQueue()
	defer q.Close()

	errBoom := errors.New("boom")
	_, err := q.Push(context.Background(), "fail", func(ctx context.Context) (any, error) {
		return nil, errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	res, err := q.Push(context.Background(), "ok", func(ctx context.Context) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
}

func TestQueueClose(t *testing.T) {
	defer test.CheckRoutines(t)()

	q := newTestQueue()

	started := make(chan struct{})
	release := make(chan struct{})
	first := q.Enqueue(context.Background(), "blocking", func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return "done", nil
	})
	<-started

	var ran atomic.Bool
	second := q.Enqueue(context.Background(), "waiting", func(ctx context.Context) (any, error) {
		ran.Store(true)
		return nil, nil
	})
	assert.Equal(t, 1, q.Len())
	assert.True(t, q.Busy())

	q.Close()
	assert.True(t, q.Closed())

	err := second.Err()
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, mediaerr.IsInvalidState(err))
	assert.Equal(t, 0, q.Len())

	_, err = q.Push(context.Background(), "late", func(ctx context.Context) (any, error) {
		ran.Store(true)
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrClosed)

	close(release)
	res, err := first.Wait(context.Background())
	require.NoError(t, err, "running task is allowed to finish")
	assert.Equal(t, "done", res)
	assert.False(t, ran.Load())

	q.Close()
}

func TestQueueCloseFromTask(t *testing.T) {
	defer test.CheckRoutines(t)()

	q := newTestQueue()
	_, err := q.Push(context.Background(), "self-close", func(ctx context.Context) (any, error) {
		q.Close()
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, q.Closed())
}

func TestQueueSkipsCanceledTask(t *testing.T) {
	defer test.CheckRoutines(t)()

	q := newTestQueue()
	defer q.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	first := q.Enqueue(context.Background(), "blocking", func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	})
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Bool
	second := q.Enqueue(ctx, "canceled", func(ctx context.Context) (any, error) {
		ran.Store(true)
		return nil, nil
	})

	cancel()
	_, err := second.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, first.Err())
	assert.ErrorIs(t, second.Err(), context.Canceled)
	assert.False(t, ran.Load())
}

func TestQueueWaitsForStartedTask(t *testing.T) {
	defer test.CheckRoutines(t)()

	q := newTestQueue()
	defer q.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	type result struct {
		res any
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		res, err := q.Push(ctx, "running", func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return "done", nil
		})
		resCh <- result{res, err}
	}()

	<-started
	cancel()
	select {
	case <-resCh:
		t.Fatal("Push returned before the running task finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	got := <-resCh
	require.NoError(t, got.err)
	assert.Equal(t, "done", got.res)
}

func TestQueueAbandonWithOtherContext(t *testing.T) {
	defer test.CheckRoutines(t)()

	q := newTestQueue()
	defer q.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	first := q.Enqueue(context.Background(), "blocking", func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	})
	<-started

	var ran atomic.Bool
	second := q.Enqueue(context.Background(), "abandoned", func(ctx context.Context) (any, error) {
		ran.Store(true)
		return nil, nil
	})

	waitCtx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	_, err := second.Wait(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, first.Err())
	assert.ErrorIs(t, second.Err(), context.DeadlineExceeded)
	assert.False(t, ran.Load())
}

func TestRun(t *testing.T) {
	defer test.CheckRoutines(t)()

	q := newTestQueue()
	defer q.Close()

	n, err := Run(context.Background(), q, "typed", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	errBoom := errors.New("boom")
	s, err := Run(context.Background(), q, "typed-fail", func(ctx context.Context) (string, error) {
		return "ignored", errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, "", s)
}
