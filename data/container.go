// Package data holds the in-memory vendor status used by health reporting.
// Values are swapped atomically so readers never block the probe job.
package data

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/medcompanion-api/entities"
	"github.com/giygas/medcompanion-api/interfaces"
)

// Compile-time check to ensure StatusContainer implements StatusStore
var _ interfaces.StatusStore = (*StatusContainer)(nil)

// StatusContainer keeps the latest probe result per vendor
type StatusContainer struct {
	probes          atomic.Value // map[string]entities.ProbeResult
	lastProbeRun    atomic.Value // time.Time
	serverStartTime atomic.Value // time.Time
	probing         atomic.Bool
	writeMu         sync.Mutex // serialises RecordProbes; readers stay lock free
}

// NewStatusContainer creates an empty container started at startTime
func NewStatusContainer(startTime time.Time) *StatusContainer {
	sc := &StatusContainer{}
	sc.probes.Store(make(map[string]entities.ProbeResult))
	sc.lastProbeRun.Store(time.Time{})
	sc.serverStartTime.Store(startTime)
	return sc
}

// RecordProbes merges results into the current view and stamps the run.
// Vendors missing from results keep their previous entry.
func (sc *StatusContainer) RecordProbes(results []entities.ProbeResult) {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()

	next := maps.Clone(sc.GetProbes())
	for _, r := range results {
		next[r.Vendor] = r
	}
	sc.probes.Store(next)
	sc.lastProbeRun.Store(time.Now())
}

// GetProbes returns the latest result per vendor. The map must not be modified.
func (sc *StatusContainer) GetProbes() map[string]entities.ProbeResult {
	if probes, ok := sc.probes.Load().(map[string]entities.ProbeResult); ok {
		return probes
	}
	return map[string]entities.ProbeResult{}
}

// GetLastProbeRun returns when probes last ran, zero if never
func (sc *StatusContainer) GetLastProbeRun() time.Time {
	if t, ok := sc.lastProbeRun.Load().(time.Time); ok {
		return t
	}
	return time.Time{}
}

// GetServerStartTime returns the server start time
func (sc *StatusContainer) GetServerStartTime() time.Time {
	if t, ok := sc.serverStartTime.Load().(time.Time); ok {
		return t
	}
	return time.Time{}
}

// BeginProbe marks the start of a probe run.
// Returns false if another run is in progress.
func (sc *StatusContainer) BeginProbe() bool {
	return sc.probing.CompareAndSwap(false, true)
}

// EndProbe marks the end of a probe run
func (sc *StatusContainer) EndProbe() {
	sc.probing.Store(false)
}
