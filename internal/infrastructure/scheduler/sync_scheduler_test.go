package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsync "github.com/storefront/backend/internal/application/sync"
)

type fakeRunner struct {
	runs int32
	err  error
}

func (f *fakeRunner) SyncAll(_ context.Context) (*appsync.SyncReport, error) {
	atomic.AddInt32(&f.runs, 1)
	if f.err != nil {
		return nil, f.err
	}
	return &appsync.SyncReport{
		Products: appsync.SyncResult{Added: 2},
	}, nil
}

func TestSyncScheduler_RunOnce(t *testing.T) {
	t.Run("records report on success", func(t *testing.T) {
		runner := &fakeRunner{}
		sched := NewSyncScheduler(SyncSchedulerConfig{Interval: time.Hour}, runner, nil)

		report, err := sched.RunOnce(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, report.Products.Added)

		status := sched.Status()
		assert.False(t, status.Running)
		assert.False(t, status.LastRun.IsZero())
		assert.Empty(t, status.LastError)
		assert.Equal(t, report, status.LastReport)
	})

	t.Run("records error on failure", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("feed unreachable")}
		sched := NewSyncScheduler(SyncSchedulerConfig{Interval: time.Hour}, runner, nil)

		_, err := sched.RunOnce(context.Background())

		require.Error(t, err)
		assert.Equal(t, "feed unreachable", sched.Status().LastError)
	})
}

func TestSyncScheduler_StartRunsImmediately(t *testing.T) {
	runner := &fakeRunner{}
	sched := NewSyncScheduler(SyncSchedulerConfig{Interval: time.Hour}, runner, nil)

	require.NoError(t, sched.Start(context.Background()))
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, sched.Stop(stopCtx))
	}()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&runner.runs) >= 1
	}, time.Second, 10*time.Millisecond)

	assert.True(t, sched.Status().Running)
}

func TestSyncScheduler_StopIsIdempotent(t *testing.T) {
	runner := &fakeRunner{}
	sched := NewSyncScheduler(SyncSchedulerConfig{Interval: time.Hour}, runner, nil)

	require.NoError(t, sched.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sched.Stop(stopCtx))
	require.NoError(t, sched.Stop(stopCtx))
	assert.False(t, sched.Status().Running)
}

func TestSyncScheduler_TickerKeepsRunning(t *testing.T) {
	runner := &fakeRunner{}
	sched := NewSyncScheduler(SyncSchedulerConfig{Interval: 20 * time.Millisecond}, runner, nil)

	require.NoError(t, sched.Start(context.Background()))
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = sched.Stop(stopCtx)
	}()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&runner.runs) >= 3
	}, time.Second, 10*time.Millisecond)
}
