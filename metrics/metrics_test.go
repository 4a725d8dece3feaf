package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giygas/medcompanion-api/entities"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, OutcomeOK},
		{"not found", fmt.Errorf("lookup: %w", entities.ErrNotFound), OutcomeNotFound},
		{"timeout", &entities.UpstreamError{Vendor: "openfda", Err: context.DeadlineExceeded}, OutcomeTimeout},
		{"upstream status", &entities.UpstreamError{Vendor: "openfda", StatusCode: 500}, OutcomeError},
		{"other", errors.New("boom"), OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Outcome(tt.err); got != tt.expected {
				t.Errorf("Outcome() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestObserveVendorCall(t *testing.T) {
	before := testutil.ToFloat64(VendorRequestTotal.WithLabelValues("test-vendor", OutcomeOK))

	ObserveVendorCall("test-vendor", time.Now().Add(-50*time.Millisecond), nil)

	after := testutil.ToFloat64(VendorRequestTotal.WithLabelValues("test-vendor", OutcomeOK))
	if after-before != 1 {
		t.Errorf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestSetVendorUp(t *testing.T) {
	SetVendorUp("probe-test", true)
	if got := testutil.ToFloat64(VendorUp.WithLabelValues("probe-test")); got != 1 {
		t.Errorf("expected 1, got %v", got)
	}

	SetVendorUp("probe-test", false)
	if got := testutil.ToFloat64(VendorUp.WithLabelValues("probe-test")); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Post("/api/drug-info", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues(http.MethodPost, "/api/drug-info", "404"))

	req := httptest.NewRequest(http.MethodPost, "/api/drug-info", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	after := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues(http.MethodPost, "/api/drug-info", "404"))
	if after-before != 1 {
		t.Errorf("expected one request recorded for route pattern, got %v", after-before)
	}
}

func TestMetricsMiddlewareWithoutRouter(t *testing.T) {
	handler := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	before := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues(http.MethodGet, "unmatched", "200"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random", nil))
	after := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues(http.MethodGet, "unmatched", "200"))

	if after-before != 1 {
		t.Errorf("expected unmatched request to be recorded, got %v", after-before)
	}
}
