// Package health reports service health from the latest vendor probes.
package health

import (
	"net/http"
	"sort"
	"time"

	"github.com/giygas/medcompanion-api/interfaces"
)

// Health states
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store    interfaces.StatusStore
	critical string
	expected []string
}

var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// NewHealthChecker creates a health checker. critical names the vendor whose
// failure makes the service unhealthy; expected lists every probed vendor.
func NewHealthChecker(store interfaces.StatusStore, critical string, expected ...string) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		store:    store,
		critical: critical,
		expected: expected,
	}
}

// HealthCheck returns unhealthy (503) when the critical vendor's last probe
// failed, degraded (200) when another vendor is down or a vendor has not been
// probed yet, healthy (200) otherwise.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	probes := h.store.GetProbes()
	lastRun := h.store.GetLastProbeRun()

	status, httpStatus = StatusHealthy, http.StatusOK

	vendors := make(map[string]any, len(h.expected))
	var down []string
	for _, name := range h.expected {
		result, ok := probes[name]
		if !ok {
			vendors[name] = map[string]any{"status": "unknown"}
			if status == StatusHealthy {
				status = StatusDegraded
			}
			continue
		}

		entry := map[string]any{
			"status":     "up",
			"checked_at": result.CheckedAt.Format(time.RFC3339),
			"latency_ms": result.Latency.Milliseconds(),
		}
		if !result.Up {
			entry["status"] = "down"
			entry["error"] = result.Error
			down = append(down, name)
		}
		vendors[name] = entry
	}

	sort.Strings(down)
	for _, name := range down {
		if name == h.critical {
			status, httpStatus = StatusUnhealthy, http.StatusServiceUnavailable
			break
		}
		status = StatusDegraded
	}

	data = map[string]any{
		"uptime_seconds": int64(time.Since(h.store.GetServerStartTime()).Seconds()),
		"vendors":        vendors,
	}
	if lastRun.IsZero() {
		data["last_probe"] = nil
	} else {
		data["last_probe"] = lastRun.Format(time.RFC3339)
	}

	return status, data, httpStatus
}
