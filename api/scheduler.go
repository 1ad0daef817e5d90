/*
scheduler.go - Automated payroll retention sweep

PURPOSE:
  Periodically deletes payroll records (and their edit logs) created before
  the retention window. Generation already sweeps after every batch; the
  scheduler covers quiet periods where nobody generates.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Sweeps once immediately on start
  - A failed sweep is logged and retried on the next tick

CONFIGURATION:
  - Interval: How often to sweep (default: 24 hours, RETENTION_INTERVAL)
  - Enabled:  Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRetentionScheduler(service, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunRetention endpoint (manual sweep)
  - payroll/service.go: RetentionSweep
*/
package api

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// RetentionScheduler runs the retention sweep on a timer.
type RetentionScheduler struct {
	Service  *payroll.Service
	Interval time.Duration
	Enabled  bool
	Logger   *slog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRetentionScheduler creates a new scheduler.
func NewRetentionScheduler(service *payroll.Service, logger *slog.Logger) *RetentionScheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RetentionScheduler{
		Service:  service,
		Interval: 24 * time.Hour,
		Enabled:  true,
		Logger:   logger,
	}
}

// Start begins the scheduler. Calling Start twice is a no-op.
func (rs *RetentionScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("retention scheduler disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.Interval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run()

	rs.Logger.Info("retention scheduler started", "interval", rs.Interval.String())
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (rs *RetentionScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.Logger.Info("retention scheduler stopped")
	}
}

func (rs *RetentionScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.sweep()

	for {
		select {
		case <-rs.ticker.C:
			rs.sweep()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RetentionScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := rs.Service.RetentionSweep(ctx)
	if err != nil {
		rs.Logger.Error("scheduled retention sweep failed", "err", err)
		return
	}
	rs.Logger.Debug("scheduled retention sweep done",
		"deleted", result.Deleted, "cutoff", result.Cutoff.Format(time.RFC3339))
}
