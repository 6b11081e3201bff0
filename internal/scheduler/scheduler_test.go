package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs int32
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	atomic.AddInt32(&j.runs, 1)
	return nil
}

func TestSchedulerTicksJob(t *testing.T) {
	job := &countingJob{}
	s := New()
	s.Register(job, 10*time.Millisecond)

	s.Start(context.Background())
	time.Sleep(55 * time.Millisecond)
	s.Stop()

	runs := atomic.LoadInt32(&job.runs)
	assert.GreaterOrEqual(t, runs, int32(2))
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	s := New()
	s.Register(&countingJob{}, time.Hour)
	s.Start(context.Background())
	s.Stop()
	s.Stop()
}

func TestMemoryLockerSingleFlight(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "sweep:anomaly", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Acquire(ctx, "sweep:anomaly", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, "sweep:anomaly"))

	ok, err = l.Acquire(ctx, "sweep:anomaly", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLockerExpiredHoldIsFree(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "sweep:anomaly", time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)

	ok, err = l.Acquire(ctx, "sweep:anomaly", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
