package entities

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrInvalidInput marks a caller error detected before any vendor call.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means the vendor answered but had no match.
	ErrNotFound = errors.New("not found")

	// ErrNotConfigured means the feature's vendor credentials are missing.
	ErrNotConfigured = errors.New("not configured")
)

// UpstreamError wraps a transport failure, timeout or non-2xx answer from a
// vendor. Callers may retry it.
type UpstreamError struct {
	Vendor     string
	StatusCode int
	Detail     string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("%s: status %d: %s", e.Vendor, e.StatusCode, e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Vendor, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Vendor, e.Err)
	default:
		return fmt.Sprintf("%s: upstream error", e.Vendor)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a deadline rather than a refusal.
func (e *UpstreamError) Timeout() bool {
	if e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
