package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simal/floorboard/internal/schedule"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestRefresher_RunsImmediatelyThenOnInterval(t *testing.T) {
	var fetches, results atomic.Int64
	r := New(25*time.Millisecond,
		func(ctx context.Context) ([]schedule.Order, error) {
			fetches.Add(1)
			return []schedule.Order{{ID: "O1"}}, nil
		},
		func(orders []schedule.Order) { results.Add(1) },
		nil,
	)

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	waitFor(t, func() bool { return fetches.Load() >= 1 }, "no immediate fetch")
	waitFor(t, func() bool { return fetches.Load() >= 3 }, "no periodic fetches")
	waitFor(t, func() bool { return results.Load() >= 3 }, "results not delivered")
}

func TestRefresher_StartTwice(t *testing.T) {
	r := New(time.Hour,
		func(ctx context.Context) ([]schedule.Order, error) { return nil, nil },
		func([]schedule.Order) {}, nil)

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()
	assert.ErrorIs(t, r.Start(context.Background()), ErrAlreadyRunning)
}

func TestRefresher_SkipsTickWhileFetchInFlight(t *testing.T) {
	release := make(chan struct{})
	var fetches atomic.Int64

	r := New(10*time.Millisecond,
		func(ctx context.Context) ([]schedule.Order, error) {
			fetches.Add(1)
			<-release
			return nil, nil
		},
		func([]schedule.Order) {}, nil)

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	waitFor(t, func() bool { return fetches.Load() == 1 }, "first fetch did not start")

	// Several intervals elapse while the first fetch hangs; no overlap allowed.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int64(1), fetches.Load(), "overlapping fetch dispatched")

	close(release)
	waitFor(t, func() bool { return fetches.Load() >= 2 }, "cadence did not resume after release")
}

func TestRefresher_StopDiscardsInFlightResult(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var delivered atomic.Int64

	r := New(time.Hour,
		func(ctx context.Context) ([]schedule.Order, error) {
			close(started)
			<-release
			return []schedule.Order{{ID: "O1"}}, nil
		},
		func([]schedule.Order) { delivered.Add(1) },
		nil)

	require.NoError(t, r.Start(context.Background()))
	<-started

	r.Stop()
	close(release)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), delivered.Load(), "result arriving after Stop must be discarded")
	assert.False(t, r.Running())
}

func TestRefresher_StopTwice(t *testing.T) {
	r := New(time.Hour,
		func(ctx context.Context) ([]schedule.Order, error) { return nil, nil },
		func([]schedule.Order) {}, nil)
	require.NoError(t, r.Start(context.Background()))
	r.Stop()
	r.Stop() // must not panic
}

func TestRefresher_ErrorsDoNotStopCadence(t *testing.T) {
	var fetches atomic.Int64
	var errs atomic.Int64
	var results atomic.Int64

	r := New(15*time.Millisecond,
		func(ctx context.Context) ([]schedule.Order, error) {
			if fetches.Add(1) <= 2 {
				return nil, errors.New("backend unreachable")
			}
			return []schedule.Order{}, nil
		},
		func([]schedule.Order) { results.Add(1) },
		func(err error) { errs.Add(1) },
	)

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	waitFor(t, func() bool { return errs.Load() >= 2 }, "fetch errors not reported")
	waitFor(t, func() bool { return results.Load() >= 1 }, "cadence did not recover after transient failures")
}

func TestRefresher_RestartAfterStop(t *testing.T) {
	var fetches atomic.Int64
	r := New(time.Hour,
		func(ctx context.Context) ([]schedule.Order, error) {
			fetches.Add(1)
			return nil, nil
		},
		func([]schedule.Order) {}, nil)

	require.NoError(t, r.Start(context.Background()))
	waitFor(t, func() bool { return fetches.Load() == 1 }, "first run missing")
	r.Stop()

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()
	waitFor(t, func() bool { return fetches.Load() == 2 }, "restart did not fetch")
}
