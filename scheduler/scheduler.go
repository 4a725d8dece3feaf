// Package scheduler runs periodic vendor reachability probes with gocron and
// records the results for the health endpoint.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/giygas/medcompanion-api/entities"
	"github.com/giygas/medcompanion-api/interfaces"
	"github.com/giygas/medcompanion-api/logging"
	"github.com/giygas/medcompanion-api/metrics"
	"github.com/go-co-op/gocron"
)

// DefaultProbeTimeout bounds each vendor ping
const DefaultProbeTimeout = 5 * time.Second

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler probes every vendor on a fixed interval
type Scheduler struct {
	store        interfaces.StatusStore
	probers      []interfaces.Prober
	interval     time.Duration
	probeTimeout time.Duration
	scheduler    *gocron.Scheduler
}

// NewScheduler creates a scheduler for the given probers
func NewScheduler(store interfaces.StatusStore, interval time.Duration, probers ...interfaces.Prober) *Scheduler {
	return &Scheduler{
		store:        store,
		probers:      probers,
		interval:     interval,
		probeTimeout: DefaultProbeTimeout,
		scheduler:    gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the probe job. The first run happens immediately in the
// background so startup is not held up by slow vendors.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("probe interval must be positive, got %v", s.interval)
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.RunProbes)
	if err != nil {
		logging.Error("Failed to schedule vendor probes", "error", err)
		return fmt.Errorf("failed to schedule vendor probes: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Vendor probes scheduled", "interval", s.interval.String(), "vendors", len(s.probers))
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunProbes pings every vendor concurrently and records the results.
// Overlapping runs are skipped.
func (s *Scheduler) RunProbes() {
	if !s.store.BeginProbe() {
		logging.Info("Probe run already in progress, skipping...")
		return
	}
	defer s.store.EndProbe()

	results := make([]entities.ProbeResult, len(s.probers))
	var wg sync.WaitGroup
	for i, p := range s.probers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.probe(p)
		}()
	}
	wg.Wait()

	down := 0
	for _, r := range results {
		metrics.SetVendorUp(r.Vendor, r.Up)
		if !r.Up {
			down++
			logging.Warn("Vendor probe failed", "vendor", r.Vendor, "error", r.Error)
		}
	}

	s.store.RecordProbes(results)
	logging.Debug("Vendor probes completed", "vendors", len(results), "down", down)
}

func (s *Scheduler) probe(p interfaces.Prober) entities.ProbeResult {
	ctx, cancel := context.WithTimeout(context.Background(), s.probeTimeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)

	result := entities.ProbeResult{
		Vendor:    p.Name(),
		Up:        err == nil,
		CheckedAt: start,
		Latency:   time.Since(start),
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}
