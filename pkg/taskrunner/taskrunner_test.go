package taskrunner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_RunsTask(t *testing.T) {
	runner := New(Config{MaxTasks: 5})

	done := make(chan struct{})
	err := runner.Submit(context.Background(), "test", func(ctx context.Context) error {
		close(done)
		return nil
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not executed")
	}
}

func TestSubmit_DetachedFromCallerContext(t *testing.T) {
	runner := New(Config{MaxTasks: 5})

	callerCtx, cancel := context.WithCancel(context.Background())
	cancel() // Контекст вызывающей стороны уже отменен

	var taskCtxErr error
	done := make(chan struct{})
	err := runner.Submit(callerCtx, "test", func(ctx context.Context) error {
		taskCtxErr = ctx.Err()
		close(done)
		return nil
	})
	require.NoError(t, err)

	<-done
	// Контекст задачи живет независимо от контекста запроса
	assert.NoError(t, taskCtxErr)
}

func TestSubmit_RecoversPanic(t *testing.T) {
	runner := New(Config{MaxTasks: 5})

	err := runner.Submit(context.Background(), "panicking", func(ctx context.Context) error {
		panic("boom")
	})
	require.NoError(t, err)

	// Shutdown не зависает и не падает после паники в задаче
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, runner.Shutdown(ctx))
}

func TestShutdown_WaitsForTasks(t *testing.T) {
	runner := New(Config{MaxTasks: 5})

	var completed atomic.Bool
	err := runner.Submit(context.Background(), "slow", func(ctx context.Context) error {
		time.Sleep(100 * time.Millisecond)
		completed.Store(true)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(ctx))
	assert.True(t, completed.Load())
}

func TestShutdown_Timeout(t *testing.T) {
	runner := New(Config{MaxTasks: 5})

	release := make(chan struct{})
	defer close(release)

	err := runner.Submit(context.Background(), "stuck", func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, runner.Shutdown(ctx))
}

func TestSubmit_AfterShutdown(t *testing.T) {
	runner := New(Config{MaxTasks: 5})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(ctx))

	err := runner.Submit(context.Background(), "late", func(ctx context.Context) error {
		return nil
	})
	assert.Error(t, err)
}

func TestSubmit_MaxTasksLimit(t *testing.T) {
	runner := New(Config{MaxTasks: 1})

	release := make(chan struct{})
	err := runner.Submit(context.Background(), "first", func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	err = runner.Submit(context.Background(), "second", func(ctx context.Context) error {
		return nil
	})
	assert.Error(t, err)

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(ctx))
}

func TestSubmit_TaskErrorDoesNotPropagate(t *testing.T) {
	runner := New(Config{MaxTasks: 5})

	err := runner.Submit(context.Background(), "failing", func(ctx context.Context) error {
		return errors.New("task failed")
	})
	// Submit возвращает управление сразу, ошибка задачи остается в логе
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(ctx))
}
