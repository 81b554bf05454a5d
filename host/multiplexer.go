// Package host provides the minimal reference Host described in spec.md
// §1 as out-of-scope: it owns N *handler.Handler instances, wires each to
// the shared metrics.Collector, and sequences graceful shutdown. Grounded
// on core/shutdown.go's priority-ordered ShutdownManager and
// cli/daemon.go's boot/start/shutdown split.
package host

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/netresearch/loadedhandler/handler"
	"github.com/netresearch/loadedhandler/metrics"
)

// Multiplexer owns every registered Handler for the process lifetime.
type Multiplexer struct {
	mu       sync.Mutex
	handlers map[string]*handler.Handler
	metrics  *metrics.Collector
	logger   handler.Logger
}

// New returns an empty Multiplexer. metricsCollector may be nil to skip
// metrics wiring entirely.
func New(logger handler.Logger, metricsCollector *metrics.Collector) *Multiplexer {
	return &Multiplexer{
		handlers: make(map[string]*handler.Handler),
		metrics:  metricsCollector,
		logger:   logger,
	}
}

// Add registers h under its FullName. Returns an error if a handler with
// the same full name is already registered, matching spec.md §6's
// uniqueness requirement for the Package/Handler/Job identity.
func (m *Multiplexer) Add(h *handler.Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := h.FullName()
	if _, exists := m.handlers[name]; exists {
		return fmt.Errorf("host: handler %q already registered", name)
	}
	if m.metrics != nil {
		h.SetMetrics(m.metrics)
	}
	m.handlers[name] = h
	return nil
}

// Get returns the handler registered under fullName, if any.
func (m *Multiplexer) Get(fullName string) (*handler.Handler, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handlers[fullName]
	return h, ok
}

// List returns every registered handler's full name, sorted.
func (m *Multiplexer) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.handlers))
	for name := range m.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PollMetrics snapshots every handler's queue depths into the shared
// metrics.Collector. Callers run this on a ticker; it is not automatic,
// since the Host owns the polling cadence (spec.md §1 leaves Host
// observability to the integrator).
func (m *Multiplexer) PollMetrics() {
	if m.metrics == nil {
		return
	}

	m.mu.Lock()
	handlers := make([]*handler.Handler, 0, len(m.handlers))
	for _, h := range m.handlers {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	for _, h := range handlers {
		info := h.GetInfo()
		m.metrics.QueueDepths(info.FullName, info.AvailableCount, info.PendingCount, info.FinishedCount, info.DeadLetteredCount)
	}
}

// Shutdown stops every registered handler concurrently: Stop() first
// (draining the control loop and resetting state), then Shutdown() (tearing
// down the cron scheduler), matching cli/daemon.go's documented shutdown
// ordering. Each handler is independent, so the per-handler work runs under
// an errgroup.Group rather than the teacher's sequential sync.WaitGroup
// loop; it returns the first error encountered but always attempts every
// handler.
func (m *Multiplexer) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	handlers := make([]*handler.Handler, 0, len(m.handlers))
	for _, h := range m.handlers {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	var eg errgroup.Group
	for _, h := range handlers {
		eg.Go(func() error {
			_, err := h.Stop()
			h.Shutdown()
			return err
		})
	}

	done := make(chan error, 1)
	go func() { done <- eg.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		m.logger.Errorf("host: shutdown timed out waiting for %d handlers", len(handlers))
		return ctx.Err()
	}
}

// DefaultShutdownTimeout mirrors the teacher's ShutdownManager default.
const DefaultShutdownTimeout = 30 * time.Second
