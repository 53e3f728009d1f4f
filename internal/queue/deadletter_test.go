package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deadLetter(t *testing.T, m *Manager, payload any) *Job {
	t.Helper()
	ctx := context.Background()

	job, err := m.AddJob(ctx, ResumeGeneration, payload, Options{MaxAttempts: 1})
	require.NoError(t, err)
	leased, err := m.GetNextJob(ctx, ResumeGeneration)
	require.NoError(t, err)
	require.NotNil(t, leased)
	require.NoError(t, m.FailJob(ctx, job.ID, ResumeGeneration, "permanent"))
	return job
}

func TestManager_ListFailed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	first := deadLetter(t, m, "first")
	second := deadLetter(t, m, "second")

	jobs, err := m.ListFailed(ctx, ResumeGeneration, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)
	assert.Equal(t, "permanent", jobs[0].LastError)

	limited, err := m.ListFailed(ctx, ResumeGeneration, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.ID, limited[0].ID)

	_, err = m.ListFailed(ctx, Name("nope"), 0)
	assert.ErrorIs(t, err, ErrUnknownQueue)
}

func TestManager_RetryFailed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("requeues with fresh attempts", func(t *testing.T) {
		t.Parallel()
		m, _, _ := newTestManager(t)
		job := deadLetter(t, m, "x")

		retried, err := m.RetryFailed(ctx, job.ID, ResumeGeneration)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, retried.Status)
		assert.Zero(t, retried.Attempts)
		assert.Equal(t, "permanent", retried.LastError)

		stats, err := m.GetQueueStats(ctx, ResumeGeneration)
		require.NoError(t, err)
		assert.Zero(t, stats.Failed)
		assert.Equal(t, int64(1), stats.Ready)

		next, err := m.GetNextJob(ctx, ResumeGeneration)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, job.ID, next.ID)

		_, err = m.RetryFailed(ctx, job.ID, ResumeGeneration)
		assert.ErrorIs(t, err, ErrNotDeadLetter)
	})

	t.Run("missing job", func(t *testing.T) {
		t.Parallel()
		m, _, _ := newTestManager(t)

		_, err := m.RetryFailed(ctx, "missing", ResumeGeneration)
		assert.ErrorIs(t, err, ErrJobNotFound)
	})

	t.Run("job that is not dead-lettered", func(t *testing.T) {
		t.Parallel()
		m, _, _ := newTestManager(t)

		job, err := m.AddJob(ctx, ResumeGeneration, "x", Options{Delay: time.Minute})
		require.NoError(t, err)

		_, err = m.RetryFailed(ctx, job.ID, ResumeGeneration)
		assert.ErrorIs(t, err, ErrNotDeadLetter)
	})
}

func TestManager_RequeueStale(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("reclaims only expired leases", func(t *testing.T) {
		t.Parallel()
		m, store, clock := newTestManager(t)

		stale, err := m.AddJob(ctx, ResumeGeneration, "stale", Options{})
		require.NoError(t, err)
		fresh, err := m.AddJob(ctx, ResumeGeneration, "fresh", Options{})
		require.NoError(t, err)

		_, err = m.GetNextJob(ctx, ResumeGeneration)
		require.NoError(t, err)
		clock.Advance(10 * time.Minute)
		_, err = m.GetNextJob(ctx, ResumeGeneration)
		require.NoError(t, err)

		n, err := m.RequeueStale(ctx, ResumeGeneration, 5*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := m.GetJob(ctx, stale.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, got.Status)
		assert.Equal(t, 1, got.Attempts)
		assert.Equal(t, LeaseExpiredError, got.LastError)

		processing, err := store.ListRange(ctx, processingKey(ResumeGeneration), 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{fresh.ID}, processing)

		// A late completion from the original worker still lands.
		require.NoError(t, m.CompleteJob(ctx, stale.ID, ResumeGeneration))
		stats, err := m.GetQueueStats(ctx, ResumeGeneration)
		require.NoError(t, err)
		assert.Zero(t, stats.Delayed)
	})

	t.Run("disabled with zero threshold", func(t *testing.T) {
		t.Parallel()
		m, _, clock := newTestManager(t)

		_, err := m.AddJob(ctx, ResumeGeneration, "x", Options{})
		require.NoError(t, err)
		_, err = m.GetNextJob(ctx, ResumeGeneration)
		require.NoError(t, err)
		clock.Advance(24 * time.Hour)

		n, err := m.RequeueStale(ctx, ResumeGeneration, 0)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestManager_RetryAt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _, clock := newTestManager(t)

	job, err := m.AddJob(ctx, ResumeGeneration, "x", Options{})
	require.NoError(t, err)

	_, ok, err := m.RetryAt(ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.GetNextJob(ctx, ResumeGeneration)
	require.NoError(t, err)
	require.NoError(t, m.FailJob(ctx, job.ID, ResumeGeneration, "boom"))

	at, ok, err := m.RetryAt(ctx, job.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.Equal(clock.Now().Add(2*time.Second)), "got %s", at)

	_, _, err = m.RetryAt(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}
