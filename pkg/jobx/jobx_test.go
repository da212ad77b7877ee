package jobx_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/jobx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerRunsTasksUntilCancelled(t *testing.T) {
	runner := jobx.NewRunner()

	var runs atomic.Int64
	runner.Register("counter", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Start(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() >= 3 },
		2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestRunnerKeepsGoingAfterTaskFailure(t *testing.T) {
	runner := jobx.NewRunner()

	var runs atomic.Int64
	runner.Register("flaky", 10*time.Millisecond, func(context.Context) error {
		if runs.Add(1) == 1 {
			return assert.AnError
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Start(ctx)

	require.Eventually(t, func() bool { return runs.Load() >= 2 },
		2*time.Second, 5*time.Millisecond)
}

func TestRunnerRejectsDoubleStart(t *testing.T) {
	runner := jobx.NewRunner()

	started := make(chan struct{})
	var once atomic.Bool
	runner.Register("signal", 5*time.Millisecond, func(context.Context) error {
		if once.CompareAndSwap(false, true) {
			close(started)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Start(ctx)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("runner never ran the task")
	}

	err := runner.Start(ctx)
	assert.Error(t, err)
}
