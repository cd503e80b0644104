package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmmcquay/tictactoe-mcp/internal/logging"
)

// DefaultTimeout bounds a signal-triggered shutdown.
const DefaultTimeout = 30 * time.Second

type component struct {
	name string
	stop func(context.Context) error
}

// Manager stops registered components in reverse order of registration, so
// the log file registered first is closed after the servers that write to
// it.
type Manager struct {
	logger     logging.ContextLogger
	mu         sync.Mutex
	components []component
	err        error
	done       chan struct{}
	once       sync.Once
}

// NewManager creates a new shutdown manager.
func NewManager(logger logging.ContextLogger) *Manager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Manager{
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Register adds a component. Registration after shutdown has started is
// ignored.
func (m *Manager) Register(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component{name: name, stop: fn})
}

// RegisterCloser registers a component that only needs closing.
func (m *Manager) RegisterCloser(name string, fn func() error) {
	m.Register(name, func(context.Context) error { return fn() })
}

// HandleSignals shuts down on SIGINT or SIGTERM, or when ctx is cancelled.
func (m *Manager) HandleSignals(ctx context.Context) {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer stop()
		select {
		case <-sigCtx.Done():
			m.logger.Info("Received shutdown signal")
			_ = m.Shutdown(DefaultTimeout)
		case <-m.done:
		}
	}()
}

// Shutdown stops every component once. Later calls wait for the first to
// finish and return its result.
func (m *Manager) Shutdown(timeout time.Duration) error {
	m.once.Do(func() {
		defer close(m.done)

		m.mu.Lock()
		components := m.components
		m.components = nil
		m.mu.Unlock()

		m.logger.Info("Starting graceful shutdown", "timeout", timeout, "components", len(components))
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var errs []error
		for i := len(components) - 1; i >= 0; i-- {
			if err := m.stop(ctx, components[i]); err != nil {
				errs = append(errs, err)
			}
		}
		m.err = errors.Join(errs...)

		if m.err != nil {
			m.logger.Error("Graceful shutdown completed with errors", "errors", len(errs))
		} else {
			m.logger.Info("Graceful shutdown completed successfully")
		}
	})
	<-m.done
	return m.err
}

func (m *Manager) stop(ctx context.Context, c component) error {
	if err := ctx.Err(); err != nil {
		m.logger.Error("Shutdown deadline passed before component stopped", "component", c.name)
		return fmt.Errorf("%s: %w", c.name, err)
	}

	m.logger.Info("Shutting down component", "component", c.name)
	start := time.Now()

	errCh := make(chan error, 1)
	go func() { errCh <- c.stop(ctx) }()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = ctx.Err()
	}

	elapsed := time.Since(start)
	if err != nil {
		m.logger.Error("Failed to shutdown component",
			"component", c.name,
			"error", err,
			"elapsed", elapsed)
		return fmt.Errorf("%s: %w", c.name, err)
	}
	m.logger.Info("Component shutdown complete",
		"component", c.name,
		"elapsed", elapsed)
	return nil
}

// Done returns a channel that's closed when shutdown is complete.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// WaitForShutdown blocks until shutdown is complete.
func (m *Manager) WaitForShutdown() {
	<-m.done
}
