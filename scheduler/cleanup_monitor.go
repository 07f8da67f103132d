// Package scheduler runs the Tracker's periodic cleanup as a single
// cancellable goroutine, following the same ticker+context+mutex-guarded
// running-flag shape this lineage's background monitors have always used.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Evictor is the subset of tracker.Tracker the monitor depends on.
type Evictor interface {
	Cleanup(maxAge time.Duration) int
}

// CleanupMonitor periodically evicts stale tracked requests.
type CleanupMonitor struct {
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	evictor  Evictor
	interval time.Duration
	maxAge   time.Duration
	logger   *zap.Logger
}

// NewCleanupMonitor builds a monitor that calls evictor.Cleanup(maxAge)
// every interval once started.
func NewCleanupMonitor(evictor Evictor, interval, maxAge time.Duration, logger *zap.Logger) *CleanupMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupMonitor{evictor: evictor, interval: interval, maxAge: maxAge, logger: logger}
}

// Start launches the background loop. A second call while already running
// is a no-op.
func (m *CleanupMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.runLoop(runCtx)
}

// Stop cancels the loop and waits for it to exit.
func (m *CleanupMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.mu.Unlock()
	cancel()
	m.wg.Wait()
}

func (m *CleanupMonitor) runLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := m.evictor.Cleanup(m.maxAge)
			if evicted > 0 {
				m.logger.Debug("tracker cleanup evicted entries", zap.Int("evicted", evicted))
			}
		}
	}
}
