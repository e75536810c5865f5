package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/airsdlc/airtrack/artifact"
)

func TestSetPopulation(t *testing.T) {
	m := New()

	m.SetPopulation([]*artifact.Artifact{
		{Type: artifact.TypePRD, Status: artifact.StatusApproved},
		{Type: artifact.TypePRD, Status: artifact.StatusDraft},
		{Type: artifact.TypeADR, Status: artifact.StatusAccepted},
	})

	expected := `
# HELP airtrack_artifacts Current number of artifacts by type and status.
# TYPE airtrack_artifacts gauge
airtrack_artifacts{status="accepted",type="adr"} 1
airtrack_artifacts{status="approved",type="prd"} 1
airtrack_artifacts{status="draft",type="prd"} 1
`
	if err := testutil.CollectAndCompare(m.artifacts, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected gauge state: %v", err)
	}

	// A second snapshot replaces the first rather than accumulating.
	m.SetPopulation([]*artifact.Artifact{
		{Type: artifact.TypeBolt, Status: artifact.StatusDone},
	})

	expected = `
# HELP airtrack_artifacts Current number of artifacts by type and status.
# TYPE airtrack_artifacts gauge
airtrack_artifacts{status="done",type="bolt"} 1
`
	if err := testutil.CollectAndCompare(m.artifacts, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected gauge state after reset: %v", err)
	}
}

func TestObserveTransition(t *testing.T) {
	m := New()

	m.ObserveTransition(artifact.TypePRD, artifact.StatusApproved)
	m.ObserveTransition(artifact.TypePRD, artifact.StatusApproved)
	m.ObserveTransition(artifact.TypeRFC, artifact.StatusAccepted)

	got := testutil.ToFloat64(m.transitionsTotal.WithLabelValues("prd", "approved"))
	if got != 2 {
		t.Errorf("transitions_total{prd,approved} = %v, want 2", got)
	}
	got = testutil.ToFloat64(m.transitionsTotal.WithLabelValues("rfc", "accepted"))
	if got != 1 {
		t.Errorf("transitions_total{rfc,accepted} = %v, want 1", got)
	}
}

func TestObserveValidationFailure(t *testing.T) {
	m := New()

	m.ObserveValidationFailure()
	m.ObserveValidationFailure()

	if got := testutil.ToFloat64(m.validationFailures); got != 2 {
		t.Errorf("validation_failures_total = %v, want 2", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	if m.Handler() == nil {
		t.Fatal("Handler returned nil")
	}
}
