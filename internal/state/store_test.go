package state

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orca/internal/api"
	"orca/internal/state/statetest"
)

// blockingFetch returns a fetch that blocks until release is closed.
func blockingFetch(calls *atomic.Int32, release <-chan struct{}, value []string) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return value, nil
	}
}

func waitLoading[T any](t *testing.T, s *Store[T]) {
	t.Helper()
	require.Eventually(t, s.Loading, time.Second, time.Millisecond)
}

func TestStore_SecondLoadWhilePendingIssuesNoRequest(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	s := NewStore(blockingFetch(&calls, release, []string{"x"}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		started, err := s.Load(context.Background(), false)
		assert.True(t, started)
		assert.NoError(t, err)
	}()
	waitLoading(t, s)

	started, err := s.Load(context.Background(), false)
	assert.False(t, started)
	assert.NoError(t, err)

	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, s.Loading())
	assert.Equal(t, []string{"x"}, s.Data())
}

func TestStore_ForcedLoadWins(t *testing.T) {
	releaseOld := make(chan struct{})
	entered := make(chan struct{})
	var n atomic.Int32
	s := NewStore(func(context.Context) (string, error) {
		if n.Add(1) == 1 {
			close(entered)
			<-releaseOld
			return "old", nil
		}
		return "new", nil
	})

	done := make(chan struct{})
	go func() {
		_, _ = s.Load(context.Background(), false)
		close(done)
	}()
	<-entered

	started, err := s.Load(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, "new", s.Data())
	assert.False(t, s.Loading())

	close(releaseOld)
	<-done
	assert.Equal(t, "new", s.Data(), "older result is discarded")
}

func TestStore_ErrorKeepsDataAndClearsFlag(t *testing.T) {
	fail := false
	s := NewStore(func(context.Context) (int, error) {
		if fail {
			return 0, statetest.ErrBoom
		}
		return 7, nil
	})
	require.NoError(t, s.Ensure(context.Background()))

	fail = true
	started, err := s.Load(context.Background(), true)
	assert.True(t, started)
	assert.Equal(t, statetest.ErrBoom, err)

	snap := s.Snapshot()
	assert.Equal(t, 7, snap.Data)
	assert.False(t, snap.Loading)
	assert.Equal(t, api.CodeInternal, snap.Err.Code)

	fail = false
	require.NoError(t, s.Ensure(context.Background()), "a failed load is retried by the next Ensure")
	assert.Nil(t, s.Err())
}

func TestStore_EnsureSkipsFreshAndReloadsStale(t *testing.T) {
	var calls atomic.Int32
	s := NewStore(func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	})
	ctx := context.Background()

	require.NoError(t, s.Ensure(ctx))
	require.NoError(t, s.Ensure(ctx))
	assert.Equal(t, int32(1), calls.Load())

	s.Invalidate()
	assert.True(t, s.Snapshot().Stale)
	require.NoError(t, s.Ensure(ctx))
	assert.Equal(t, 2, s.Data())
	assert.False(t, s.Snapshot().Stale)
}

func TestStore_EnsureWaitsForInFlightLoad(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	s := NewStore(blockingFetch(&calls, release, []string{"y"}))

	go func() { _, _ = s.Load(context.Background(), false) }()
	waitLoading(t, s)

	done := make(chan error, 1)
	go func() { done <- s.Ensure(context.Background()) }()

	select {
	case <-done:
		t.Fatal("Ensure returned while load in flight")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"y"}, s.Data())
	assert.Equal(t, int32(1), calls.Load())
}

func TestStore_ResetReleasesWaiters(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	s := NewStore(blockingFetch(&calls, release, []string{"z"}))

	go func() { _, _ = s.Load(context.Background(), false) }()
	waitLoading(t, s)

	s.Reset()
	require.NoError(t, s.Wait(context.Background()))

	close(release)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Nil(t, s.Data(), "result of an abandoned load is dropped")
	assert.False(t, s.Snapshot().Loaded)
}

func TestStore_WaitHonoursContext(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	defer close(release)
	s := NewStore(blockingFetch(&calls, release, nil))

	go func() { _, _ = s.Load(context.Background(), false) }()
	waitLoading(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)
}
