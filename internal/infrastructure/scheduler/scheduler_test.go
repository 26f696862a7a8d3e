package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "test job" }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(10 * time.Minute)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(10*time.Minute), s.Next(now))
	assert.Equal(t, "@every 10m0s", s.String())
}

func TestSchedulerRegister(t *testing.T) {
	s := NewScheduler(nil)

	require.NoError(t, s.Register(&countingJob{name: "a"}, NewIntervalSchedule(time.Minute)))

	t.Run("rejects nil job", func(t *testing.T) {
		assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	})

	t.Run("rejects nil schedule", func(t *testing.T) {
		assert.ErrorIs(t, s.Register(&countingJob{name: "b"}, nil), ErrNilSchedule)
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		err := s.Register(&countingJob{name: "a"}, NewIntervalSchedule(time.Minute))
		assert.ErrorIs(t, err, ErrJobAlreadyExists)
	})

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, "@every 1m0s", infos[0].Schedule)
	assert.False(t, infos[0].NextRun.IsZero())
}

func TestSchedulerRunNow(t *testing.T) {
	ctx := context.Background()

	t.Run("executes a registered job", func(t *testing.T) {
		s := NewScheduler(nil)
		job := &countingJob{name: "rebuild"}
		require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

		result, err := s.RunNow(ctx, "rebuild")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.EqualValues(t, 1, job.runs.Load())
	})

	t.Run("reports job failure", func(t *testing.T) {
		s := NewScheduler(nil)
		boom := errors.New("boom")
		require.NoError(t, s.Register(&countingJob{name: "bad", err: boom}, NewIntervalSchedule(time.Hour)))

		result, err := s.RunNow(ctx, "bad")
		require.ErrorIs(t, err, boom)
		assert.False(t, result.Success)
	})

	t.Run("unknown job", func(t *testing.T) {
		s := NewScheduler(nil)
		_, err := s.RunNow(ctx, "missing")
		assert.ErrorIs(t, err, ErrJobNotFound)
	})
}

func TestSchedulerLifecycle(t *testing.T) {
	s := NewScheduler(nil)
	require.NoError(t, s.Register(&countingJob{name: "a"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}
