package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistryInitializesAllMetrics(t *testing.T) {
	r := NewRegistry()

	if r.GenerationPassesTotal == nil {
		t.Fatal("GenerationPassesTotal not initialized")
	}
	if r.SpeciesDiscovered == nil {
		t.Fatal("SpeciesDiscovered not initialized")
	}
	if r.ReactionsDiscovered == nil {
		t.Fatal("ReactionsDiscovered not initialized")
	}
	if r.GetPrometheusRegistry() == nil {
		t.Fatal("underlying prometheus registry not initialized")
	}
}

func TestRecordGenerationPass(t *testing.T) {
	r := NewRegistry()

	r.RecordGenerationPass(12, 30)
	r.RecordGenerationPass(15, 42)

	if got := testutil.ToFloat64(r.GenerationPassesTotal); got != 2 {
		t.Errorf("GenerationPassesTotal = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.NetworkSpeciesTotal); got != 15 {
		t.Errorf("NetworkSpeciesTotal = %v, want 15", got)
	}
	if got := testutil.ToFloat64(r.NetworkReactionsTotal); got != 42 {
		t.Errorf("NetworkReactionsTotal = %v, want 42", got)
	}
}

func TestRecordGenerationOutcomes(t *testing.T) {
	r := NewRegistry()

	r.RecordGenerationDone(50 * time.Millisecond)
	r.RecordGenerationFailed()
	r.RecordGenerationFailed()

	if got := testutil.ToFloat64(r.GenerationsTotal.WithLabelValues("converged")); got != 1 {
		t.Errorf("converged generations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.GenerationsTotal.WithLabelValues("failed")); got != 2 {
		t.Errorf("failed generations = %v, want 2", got)
	}
}

func TestRecordMatch(t *testing.T) {
	r := NewRegistry()

	r.RecordMatch(3)
	r.RecordMatch(0)
	r.RecordMatch(2)

	if got := testutil.ToFloat64(r.MatchInvocationsTotal); got != 3 {
		t.Errorf("MatchInvocationsTotal = %v, want 3", got)
	}
	if got := testutil.ToFloat64(r.EmbeddingsFound); got != 5 {
		t.Errorf("EmbeddingsFound = %v, want 5", got)
	}
}

func TestDefaultRegistrySingleton(t *testing.T) {
	a := DefaultRegistry()
	b := DefaultRegistry()
	if a != b {
		t.Error("DefaultRegistry returned different instances")
	}
}
