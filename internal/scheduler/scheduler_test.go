package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadInterval(t *testing.T) {
	_, err := New(0, JobFunc(func(context.Context) {}), nil)
	assert.Error(t, err)

	_, err = New(time.Second, nil, nil)
	assert.Error(t, err)
}

func TestStartRunsImmediatelyThenOnTicks(t *testing.T) {
	var runs int32
	s, err := New(time.Second, JobFunc(func(context.Context) { atomic.AddInt32(&runs, 1) }), nil)
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 1 }, 500*time.Millisecond, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 2 }, 3*time.Second, 50*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	after := atomic.LoadInt32(&runs)
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&runs))
}

func TestStopCancelsInFlightRun(t *testing.T) {
	started := make(chan struct{})
	var cancelled int32
	s, err := New(time.Hour, JobFunc(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		atomic.StoreInt32(&cancelled, 1)
	}), nil)
	require.NoError(t, err)

	s.Start()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&cancelled))
}

func TestEveryRegistersHousekeeping(t *testing.T) {
	var sweeps int32
	s, err := New(time.Hour, JobFunc(func(context.Context) {}), nil)
	require.NoError(t, err)
	require.NoError(t, s.Every(time.Second, "sweep", func() { atomic.AddInt32(&sweeps, 1) }))

	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&sweeps) >= 1 }, 3*time.Second, 50*time.Millisecond)
}
