package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_ReturnsTaskResult(t *testing.T) {
	p := New(nil, nil)
	defer p.Shutdown(context.Background())

	want := errors.New("sync failed")
	err := p.Submit(context.Background(), func(context.Context) error { return want })
	assert.ErrorIs(t, err, want)

	assert.NoError(t, p.Submit(context.Background(), func(context.Context) error { return nil }))
}

func TestSubmitKeyed_CoalescesPending(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 8}, nil)

	block := make(chan struct{})
	// occupy the only worker
	require.NoError(t, p.SubmitAsync(context.Background(), func(context.Context) error {
		<-block
		return nil
	}))
	time.Sleep(10 * time.Millisecond)

	var runs atomic.Int32
	fn := func(context.Context) error {
		runs.Add(1)
		return nil
	}

	queued, err := p.SubmitKeyed(context.Background(), "u1", fn)
	require.NoError(t, err)
	assert.True(t, queued)

	queued, err = p.SubmitKeyed(context.Background(), "u1", fn)
	require.NoError(t, err)
	assert.False(t, queued)

	queued, err = p.SubmitKeyed(context.Background(), "u2", fn)
	require.NoError(t, err)
	assert.True(t, queued)

	close(block)
	require.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, int32(2), runs.Load())
}

func TestSubmitKeyed_RerunsOnceWhenSubmittedWhileRunning(t *testing.T) {
	p := New(&Config{MaxWorkers: 4, QueueSize: 8}, nil)

	started := make(chan struct{}, 4)
	release := make(chan struct{})
	var runs, running, overlap atomic.Int32
	fn := func(context.Context) error {
		if running.Add(1) > 1 {
			overlap.Add(1)
		}
		defer running.Add(-1)
		runs.Add(1)
		started <- struct{}{}
		<-release
		return nil
	}

	queued, err := p.SubmitKeyed(context.Background(), "u1", fn)
	require.NoError(t, err)
	assert.True(t, queued)
	<-started

	// 执行中再次提交：不并发，结束后只重跑一次
	for i := 0; i < 3; i++ {
		queued, err = p.SubmitKeyed(context.Background(), "u1", fn)
		require.NoError(t, err)
		assert.False(t, queued)
	}

	select {
	case <-started:
		t.Fatal("same key ran concurrently")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, int32(2), runs.Load())
	assert.Zero(t, overlap.Load())

	queued, err = p.SubmitKeyed(context.Background(), "u1", fn)
	assert.ErrorIs(t, err, ErrWorkerPoolClosed)
	assert.False(t, queued)
}

func TestShutdown_RejectsNewTasks(t *testing.T) {
	p := New(nil, nil)
	require.NoError(t, p.Shutdown(context.Background()))
	assert.True(t, p.IsClosed())

	err := p.SubmitAsync(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrWorkerPoolClosed)

	_, err = p.SubmitKeyed(context.Background(), "u1", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrWorkerPoolClosed)
}

func TestSubmit_CancelledBeforeRun(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 4}, nil)
	defer p.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := p.SubmitAsync(ctx, func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, p.Shutdown(context.Background()))
	assert.False(t, called)
}
