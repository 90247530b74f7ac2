/*
scheduler.go - Periodic materialization and overdue sweep

PURPOSE:
  Keeps the pending-event table fresh without a user request. Every tick
  materializes the horizon of every active rule and flips pending events
  whose date has passed to overdue.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start
  - Reads already refresh on demand, so a failed tick only logs

CONFIGURATION:
  - CheckInterval: How often to run (scheduler.sweep_interval)
  - Enabled: false when the interval is zero

USAGE:
  sweeper := NewSweepScheduler(engine.Scheduler, interval, logger)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - generic/scheduler.go: RefreshAll
  - generic/lifecycle.go: overdue sweep
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/cashflow-engine/generic"
)

// SweepScheduler refreshes every owner on a fixed interval.
type SweepScheduler struct {
	Scheduler     *generic.Scheduler
	CheckInterval time.Duration
	Enabled       bool
	Logger        *slog.Logger

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweepScheduler creates a new scheduler. A zero interval disables it.
func NewSweepScheduler(scheduler *generic.Scheduler, interval time.Duration, logger *slog.Logger) *SweepScheduler {
	return &SweepScheduler{
		Scheduler:     scheduler,
		CheckInterval: interval,
		Enabled:       interval > 0,
		Logger:        logger,
	}
}

// Start begins the scheduler.
func (ss *SweepScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		ss.Logger.Info("sweep scheduler disabled")
		return
	}
	if ss.ticker != nil {
		return
	}

	ss.ticker = time.NewTicker(ss.CheckInterval)
	ss.stop = make(chan bool)
	ss.wg.Add(1)

	go ss.run()

	ss.Logger.Info("sweep scheduler started", "interval", ss.CheckInterval)
}

// Stop stops the scheduler and waits for an in-flight sweep.
func (ss *SweepScheduler) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		ss.ticker.Stop()
		close(ss.stop)
		ss.wg.Wait()
		ss.ticker = nil
		ss.Logger.Info("sweep scheduler stopped")
	}
}

func (ss *SweepScheduler) run() {
	defer ss.wg.Done()

	ss.RunOnce(context.Background())

	for {
		select {
		case <-ss.ticker.C:
			ss.RunOnce(context.Background())
		case <-ss.stop:
			return
		}
	}
}

// RunOnce performs a single refresh of all owners.
func (ss *SweepScheduler) RunOnce(ctx context.Context) {
	created, overdue, err := ss.Scheduler.RefreshAll(ctx)
	if err != nil {
		ss.Logger.Error("sweep failed", "error", err)
		return
	}
	if created > 0 || overdue > 0 {
		ss.Logger.Info("sweep completed", "created", created, "overdue", overdue)
	}
}
