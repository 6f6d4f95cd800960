// Package poll drives the periodic re-fetch of scheduled orders. It is a
// cancellable scheduled task with explicit Start/Stop, independent of any
// view lifecycle, so it is unit-testable without a rendering environment.
package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/simal/floorboard/internal/schedule"
)

// ErrAlreadyRunning indicates Start was called on a running refresher.
var ErrAlreadyRunning = errors.New("refresher already running")

// FetchFunc retrieves the current order snapshot from the backend.
type FetchFunc func(ctx context.Context) ([]schedule.Order, error)

// Refresher runs a fetch immediately, then on a fixed interval. At most one
// fetch is in flight at a time: a tick that fires while the previous result
// is still pending is skipped, bounding concurrent requests to one. After
// Stop, completions of in-flight fetches are discarded.
type Refresher struct {
	interval time.Duration
	fetch    FetchFunc
	onResult func([]schedule.Order)
	onError  func(error)

	mu       sync.Mutex
	running  bool
	inFlight bool
	gen      uint64
	cancel   context.CancelFunc
}

// New creates a refresher. onResult receives every successful snapshot;
// onError (optional) receives fetch failures, which never stop the cadence.
func New(interval time.Duration, fetch FetchFunc, onResult func([]schedule.Order), onError func(error)) *Refresher {
	return &Refresher{
		interval: interval,
		fetch:    fetch,
		onResult: onResult,
		onError:  onError,
	}
}

// Start begins polling: one immediate fetch, then one per interval.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancel = cancel
	gen := r.gen
	r.mu.Unlock()

	go r.loop(ctx, gen)
	return nil
}

// Stop cancels the timer and invalidates any in-flight fetch; its completion
// handler becomes a no-op. Safe to call more than once.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.gen++
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	cancel()
}

// Running reports whether the refresher is currently started.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// RefreshNow dispatches an off-cadence fetch, subject to the same single
// in-flight rule. Used by manual refresh actions from the rendering side.
func (r *Refresher) RefreshNow(ctx context.Context) {
	r.mu.Lock()
	gen := r.gen
	running := r.running
	r.mu.Unlock()
	if running {
		r.dispatch(ctx, gen)
	}
}

func (r *Refresher) loop(ctx context.Context, gen uint64) {
	r.dispatch(ctx, gen)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.dispatch(ctx, gen)
		}
	}
}

// dispatch starts a fetch unless one is already pending for this generation.
func (r *Refresher) dispatch(ctx context.Context, gen uint64) {
	r.mu.Lock()
	if r.inFlight || gen != r.gen {
		r.mu.Unlock()
		return
	}
	r.inFlight = true
	r.mu.Unlock()

	go func() {
		orders, err := r.fetch(ctx)

		r.mu.Lock()
		r.inFlight = false
		stale := gen != r.gen
		r.mu.Unlock()

		if stale {
			return // stopped while in flight; result discarded
		}
		if err != nil {
			if r.onError != nil {
				r.onError(err)
			}
			return
		}
		r.onResult(orders)
	}()
}
