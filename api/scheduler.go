/*
scheduler.go - Background overdue sweep

PURPOSE:
  Periodically walks every owner's active tenancies, logs the ones that
  have fallen overdue, and refreshes the overdue gauge exposed on
  /metrics. Rent becomes overdue purely by the passage of time, so
  without a sweep the gauge would only move when someone happened to
  call the API.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Reads through the analytics service; never writes tenancy state
  - Owner enumeration comes from the store, so new owners are picked up
    without a restart

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether the sweep is active (default: true)

USAGE:
  sweep := NewOverdueSweep(repo, stats, metrics)
  sweep.Start()
  // ... later
  sweep.Stop()

SEE ALSO:
  - analytics/analytics.go: The per-owner stats the sweep aggregates
  - metrics.go: The gauge the sweep refreshes
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/rent-engine/analytics"
	"github.com/warp/rent-engine/tenancy"
)

// OverdueSweep refreshes overdue figures in the background.
type OverdueSweep struct {
	Repo          tenancy.Repository
	Stats         *analytics.Service
	Metrics       *Metrics
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewOverdueSweep creates a new sweep. metrics may be nil.
func NewOverdueSweep(repo tenancy.Repository, stats *analytics.Service, metrics *Metrics) *OverdueSweep {
	return &OverdueSweep{
		Repo:          repo,
		Stats:         stats,
		Metrics:       metrics,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the sweep.
func (sw *OverdueSweep) Start() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if !sw.Enabled {
		log.Println("[Sweep] Disabled, not starting")
		return
	}

	sw.ticker = time.NewTicker(sw.CheckInterval)
	sw.wg.Add(1)

	go sw.run()

	log.Printf("[Sweep] Started with check interval: %v", sw.CheckInterval)
}

// Stop stops the sweep.
func (sw *OverdueSweep) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.ticker != nil {
		sw.ticker.Stop()
		close(sw.stop)
		sw.wg.Wait()
		log.Println("[Sweep] Stopped")
	}
}

func (sw *OverdueSweep) run() {
	defer sw.wg.Done()

	// Run immediately on start
	sw.RunNow()

	for {
		select {
		case <-sw.ticker.C:
			sw.RunNow()
		case <-sw.stop:
			return
		}
	}
}

// RunNow performs one sweep synchronously.
func (sw *OverdueSweep) RunNow() {
	ctx := context.Background()

	owners, err := sw.Repo.ListOwners(ctx)
	if err != nil {
		log.Printf("[Sweep] Failed to list owners: %v", err)
		return
	}

	totalOverdue := 0
	for _, owner := range owners {
		stats, err := sw.Stats.Stats(ctx, owner)
		if err != nil {
			log.Printf("[Sweep] Failed to compute stats for owner %s: %v", owner, err)
			continue
		}
		if stats.OverdueTenancies > 0 {
			log.Printf("[Sweep] Owner %s: %d overdue tenancies, total %v",
				owner, stats.OverdueTenancies, stats.TotalOverdue.Value)
		}
		totalOverdue += stats.OverdueTenancies
	}

	if sw.Metrics != nil {
		sw.Metrics.OverdueTenancies.Set(float64(totalOverdue))
	}
}
