package entities

import "time"

// ProbeResult is the outcome of one vendor reachability check.
type ProbeResult struct {
	Vendor    string        `json:"vendor"`
	Up        bool          `json:"up"`
	CheckedAt time.Time     `json:"checked_at"`
	Latency   time.Duration `json:"-"`
	Error     string        `json:"error,omitempty"`
}
