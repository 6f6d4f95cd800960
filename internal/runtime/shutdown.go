// Package runtime provides graceful shutdown handling for long-running
// workbench commands (watch, board). Teardown must stop the polling
// refresher and let in-flight submits finish or be abandoned cleanly.
package runtime

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/simal/floorboard/internal/logging"
)

// DefaultShutdownTimeout bounds cleanup work at teardown.
const DefaultShutdownTimeout = 10 * time.Second

// ShutdownFunc is a cleanup function called during shutdown.
type ShutdownFunc func(ctx context.Context) error

// ShutdownManager runs registered cleanup handlers when the process is
// interrupted or Shutdown is called.
type ShutdownManager struct {
	mu          sync.Mutex
	handlers    []namedHandler
	timeout     time.Duration
	shutdownCtx context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	once        sync.Once
	log         *logging.Logger
}

type namedHandler struct {
	name string
	fn   ShutdownFunc
}

// NewShutdownManager creates a manager with the given cleanup timeout.
func NewShutdownManager(timeout time.Duration) *ShutdownManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &ShutdownManager{
		timeout:     timeout,
		shutdownCtx: ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		log:         logging.New("runtime"),
	}
}

// Register adds a cleanup handler. Handlers run in reverse registration
// order: last registered, first called.
func (m *ShutdownManager) Register(name string, fn ShutdownFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, namedHandler{name: name, fn: fn})
}

// RegisterSimple adds a cleanup function with no error return.
func (m *ShutdownManager) RegisterSimple(name string, fn func()) {
	m.Register(name, func(ctx context.Context) error {
		fn()
		return nil
	})
}

// Context returns a context cancelled when shutdown begins. Long-running
// operations (the poll loop, in-flight submits) should run under it.
func (m *ShutdownManager) Context() context.Context {
	return m.shutdownCtx
}

// Done returns a channel closed when shutdown has completed.
func (m *ShutdownManager) Done() <-chan struct{} {
	return m.done
}

// ListenForSignals arranges for SIGTERM/SIGINT to trigger Shutdown.
// Non-blocking; call once at startup.
func (m *ShutdownManager) ListenForSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigChan
		m.log.Info("signal_received", map[string]any{"signal": sig.String()})
		m.Shutdown()
	}()
}

// Shutdown runs all handlers once, LIFO, bounded by the cleanup timeout.
func (m *ShutdownManager) Shutdown() {
	m.once.Do(m.performShutdown)
}

// WaitForShutdown blocks until shutdown is complete.
func (m *ShutdownManager) WaitForShutdown() {
	<-m.done
}

func (m *ShutdownManager) performShutdown() {
	defer close(m.done)

	m.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.Lock()
	handlers := make([]namedHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := len(handlers) - 1; i >= 0; i-- {
			h := handlers[i]
			start := time.Now()
			if err := h.fn(ctx); err != nil {
				m.log.Warn("shutdown_handler_failed", map[string]any{"handler": h.name}, err)
				continue
			}
			m.log.Debug("shutdown_handler_done", map[string]any{
				"handler": h.name, "ms": time.Since(start).Milliseconds(),
			})
		}
	}()

	select {
	case <-finished:
		m.log.Info("shutdown_complete", nil)
	case <-ctx.Done():
		m.log.Warn("shutdown_timeout", map[string]any{"timeout": m.timeout.String()}, ctx.Err())
	}
}
