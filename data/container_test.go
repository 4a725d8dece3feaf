package data

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/giygas/medcompanion-api/entities"
)

func TestNewStatusContainer(t *testing.T) {
	start := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	sc := NewStatusContainer(start)

	if got := sc.GetServerStartTime(); !got.Equal(start) {
		t.Errorf("GetServerStartTime() = %v, want %v", got, start)
	}
	if !sc.GetLastProbeRun().IsZero() {
		t.Error("expected no probe run yet")
	}
	if len(sc.GetProbes()) != 0 {
		t.Errorf("expected no probes, got %v", sc.GetProbes())
	}
}

func TestZeroValueContainer(t *testing.T) {
	var sc StatusContainer

	if sc.GetProbes() == nil {
		t.Error("GetProbes should never return nil")
	}
	if !sc.GetLastProbeRun().IsZero() || !sc.GetServerStartTime().IsZero() {
		t.Error("zero container should report zero times")
	}
}

func TestRecordProbesMerges(t *testing.T) {
	sc := NewStatusContainer(time.Now())

	sc.RecordProbes([]entities.ProbeResult{
		{Vendor: "openfda", Up: true},
		{Vendor: "openai", Up: false, Error: "401"},
	})
	before := sc.GetProbes()

	sc.RecordProbes([]entities.ProbeResult{{Vendor: "openai", Up: true}})
	probes := sc.GetProbes()

	if !probes["openfda"].Up {
		t.Error("openfda entry should be kept from the previous run")
	}
	if !probes["openai"].Up {
		t.Error("openai entry should be replaced")
	}
	if before["openai"].Up {
		t.Error("earlier snapshot must not change after a new record")
	}
	if sc.GetLastProbeRun().IsZero() {
		t.Error("expected last probe run to be set")
	}
}

func TestBeginEndProbe(t *testing.T) {
	sc := NewStatusContainer(time.Now())

	if !sc.BeginProbe() {
		t.Fatal("first BeginProbe should succeed")
	}
	if sc.BeginProbe() {
		t.Error("second BeginProbe should fail while a run is in progress")
	}
	sc.EndProbe()
	if !sc.BeginProbe() {
		t.Error("BeginProbe should succeed after EndProbe")
	}
}

func TestConcurrentAccess(t *testing.T) {
	sc := NewStatusContainer(time.Now())

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sc.RecordProbes([]entities.ProbeResult{{Vendor: fmt.Sprintf("v%d", i), Up: true}})
		}()
		go func() {
			defer wg.Done()
			for range sc.GetProbes() {
			}
			_ = sc.GetLastProbeRun()
		}()
	}
	wg.Wait()

	if got := len(sc.GetProbes()); got != 10 {
		t.Errorf("expected 10 vendors after concurrent writes, got %d", got)
	}
}
