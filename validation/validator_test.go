package validation

import (
	"strings"
	"testing"

	"github.com/airsdlc/airtrack/artifact"
)

func adrArtifact(body string) *artifact.Artifact {
	return &artifact.Artifact{
		ID:     artifact.NewID(artifact.TypeADR, "outbox"),
		Type:   artifact.TypeADR,
		Slug:   "outbox",
		Title:  "Transactional outbox",
		Status: artifact.StatusAccepted,
		Body:   []byte(body),
	}
}

const goodADR = `# Use a transactional outbox

## Context

Booking cancellations must emit events, and a dual write to the database
and the broker can lose one side of the pair under failure.

## Decision

Write events into an outbox table in the booking transaction.

## Consequences

A relay worker is required, and consumers must be idempotent.
`

func TestValidateDocumentPasses(t *testing.T) {
	v := NewValidator()
	result := v.ValidateDocument(adrArtifact(goodADR))
	if !result.Valid {
		t.Fatalf("ValidateDocument() invalid: %v", result.MissingSections)
	}
	if result.FormatFeedback() != "" {
		t.Errorf("FormatFeedback() = %q, want empty", result.FormatFeedback())
	}
}

func TestValidateDocumentMissingSection(t *testing.T) {
	v := NewValidator()
	body := "# Use a transactional outbox\n\n## Context\n\n" + strings.Repeat("context. ", 10) + "\n"
	result := v.ValidateDocument(adrArtifact(body))
	if result.Valid {
		t.Fatal("ValidateDocument() valid, want invalid")
	}

	var names []string
	for _, missing := range result.MissingSections {
		names = append(names, strings.SplitN(missing, ":", 2)[0])
	}
	joined := strings.Join(names, ",")
	if !strings.Contains(joined, "Decision") || !strings.Contains(joined, "Consequences") {
		t.Errorf("MissingSections = %v", result.MissingSections)
	}

	feedback := result.FormatFeedback()
	if !strings.Contains(feedback, "Missing or incomplete sections") {
		t.Errorf("FormatFeedback() = %q", feedback)
	}
}

func TestValidateDocumentShortSection(t *testing.T) {
	v := NewValidator()
	body := "# Outbox\n\n## Context\n\nshort\n\n## Decision\n\nDo the outbox thing properly this time.\n\n## Consequences\n\nRelay worker needed, consumers idempotent.\n"
	result := v.ValidateDocument(adrArtifact(body))
	if result.Valid {
		t.Fatal("ValidateDocument() valid, want invalid for short Context")
	}
	if len(result.MissingSections) != 1 || !strings.HasPrefix(result.MissingSections[0], "Context") {
		t.Errorf("MissingSections = %v", result.MissingSections)
	}
}

func TestValidateTreeReferences(t *testing.T) {
	v := NewValidator()

	prd := &artifact.Artifact{
		ID: "prd.checkout", Type: artifact.TypePRD, Slug: "checkout",
		Title: "Checkout", Status: artifact.StatusApproved,
		Body: []byte("# Checkout\n\n## Problem\n\n" + strings.Repeat("problem. ", 10) +
			"\n\n## Goals\n\n" + strings.Repeat("goal. ", 10) +
			"\n\n## Requirements\n\n" + strings.Repeat("req. ", 15) + "\n"),
	}
	daa := &artifact.Artifact{
		ID: "daa.checkout-domain", Type: artifact.TypeDAA, Slug: "checkout-domain",
		Title: "Checkout domain", Status: artifact.StatusDraft,
		Parents: []artifact.ID{"prd.checkout", "prd.ghost"},
		Body:    []byte("# Checkout domain\n\nSee the [PRD](../prd/checkout.md) and [notes](../prd/notes.md).\n"),
	}

	results := v.ValidateTree([]*artifact.Artifact{prd, daa})
	if len(results) != 2 {
		t.Fatalf("ValidateTree() len = %d, want 2", len(results))
	}

	var daaResult *Result
	for _, r := range results {
		if r.ArtifactID == daa.ID {
			daaResult = r
		}
	}
	if daaResult == nil {
		t.Fatal("no result for DAA")
	}
	if daaResult.Valid {
		t.Error("DAA result valid, want invalid")
	}

	broken := strings.Join(daaResult.BrokenRefs, "\n")
	if !strings.Contains(broken, "prd.ghost") {
		t.Errorf("BrokenRefs missing ghost parent: %v", daaResult.BrokenRefs)
	}
	if !strings.Contains(broken, "prd/notes.md") {
		t.Errorf("BrokenRefs missing dead link: %v", daaResult.BrokenRefs)
	}
	if strings.Contains(broken, "prd/checkout.md") {
		t.Errorf("BrokenRefs flags resolvable link: %v", daaResult.BrokenRefs)
	}
}

func TestValidateTreeIllegalParentType(t *testing.T) {
	v := NewValidator()

	rfc := &artifact.Artifact{
		ID: "rfc.cancellation", Type: artifact.TypeRFC, Slug: "cancellation",
		Title: "Cancellation", Status: artifact.StatusDraft, Body: []byte("# Cancellation\n"),
	}
	bolt := &artifact.Artifact{
		ID: "bolt.add-table", Type: artifact.TypeBolt, Slug: "add-table",
		Title: "Add table", Status: artifact.StatusTodo,
		Parents: []artifact.ID{"rfc.cancellation"},
		Body:    []byte("# Add table\n"),
	}

	results := v.ValidateTree([]*artifact.Artifact{rfc, bolt})
	var boltResult *Result
	for _, r := range results {
		if r.ArtifactID == bolt.ID {
			boltResult = r
		}
	}
	found := false
	for _, ref := range boltResult.BrokenRefs {
		if strings.Contains(ref, "may not descend") {
			found = true
		}
	}
	if !found {
		t.Errorf("BrokenRefs = %v, want illegal parent type", boltResult.BrokenRefs)
	}
}

func TestValidateTreeParentGateStatus(t *testing.T) {
	v := NewValidator()

	prd := &artifact.Artifact{
		ID: "prd.checkout", Type: artifact.TypePRD, Slug: "checkout",
		Title: "Checkout", Status: artifact.StatusDraft, Body: []byte("# Checkout\n"),
	}
	daa := &artifact.Artifact{
		ID: "daa.checkout-domain", Type: artifact.TypeDAA, Slug: "checkout-domain",
		Title: "Checkout domain", Status: artifact.StatusDraft,
		Parents: []artifact.ID{"prd.checkout"},
		Body:    []byte("# Checkout domain\n"),
	}

	// A draft PRD does not satisfy the DAA creation gate, even when the
	// documents were written by hand rather than through new.
	results := v.ValidateTree([]*artifact.Artifact{prd, daa})
	var got *Result
	for _, r := range results {
		if r.ArtifactID == daa.ID {
			got = r
		}
	}
	if got.Valid {
		t.Error("DAA under draft PRD valid, want invalid")
	}
	found := false
	for _, ref := range got.BrokenRefs {
		if strings.Contains(ref, "prd.checkout is draft") {
			found = true
		}
	}
	if !found {
		t.Errorf("BrokenRefs = %v, want gate status violation", got.BrokenRefs)
	}

	// Once the PRD is approved the pair passes.
	prd.Status = artifact.StatusApproved
	results = v.ValidateTree([]*artifact.Artifact{prd, daa})
	for _, r := range results {
		if r.ArtifactID == daa.ID && len(r.BrokenRefs) != 0 {
			t.Errorf("BrokenRefs = %v, want none after approval", r.BrokenRefs)
		}
	}
}

func TestValidateTreeSupersededParentWarns(t *testing.T) {
	v := NewValidator()

	prd := &artifact.Artifact{
		ID: "prd.checkout", Type: artifact.TypePRD, Slug: "checkout",
		Title: "Checkout", Status: artifact.StatusSuperseded,
		SupersededBy: "prd.checkout-v2", Body: []byte("# Checkout\n"),
	}
	daa := &artifact.Artifact{
		ID: "daa.checkout-domain", Type: artifact.TypeDAA, Slug: "checkout-domain",
		Title: "Checkout domain", Status: artifact.StatusValidated,
		Parents: []artifact.ID{"prd.checkout"},
		Body:    []byte("# Checkout domain\n"),
	}

	results := v.ValidateTree([]*artifact.Artifact{prd, daa})
	var got *Result
	for _, r := range results {
		if r.ArtifactID == daa.ID {
			got = r
		}
	}
	if len(got.BrokenRefs) != 0 {
		t.Errorf("BrokenRefs = %v, want none for superseded parent", got.BrokenRefs)
	}
	found := false
	for _, w := range got.Warnings {
		if strings.Contains(w, "superseded") {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %v, want superseded parent warning", got.Warnings)
	}
}

func TestValidateTreeSupersededWithoutSuccessor(t *testing.T) {
	v := NewValidator()

	orphan := &artifact.Artifact{
		ID: "adr.outbox", Type: artifact.TypeADR, Slug: "outbox",
		Title: "Outbox", Status: artifact.StatusSuperseded, Body: []byte("# Outbox\n"),
	}

	results := v.ValidateTree([]*artifact.Artifact{orphan})
	found := false
	for _, w := range results[0].Warnings {
		if strings.Contains(w, "superseded without a successor") {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %v, want missing superseded_by warning", results[0].Warnings)
	}
}

func TestValidateTreeSupersedesSymmetry(t *testing.T) {
	v := NewValidator()

	old := &artifact.Artifact{
		ID: "adr.outbox", Type: artifact.TypeADR, Slug: "outbox",
		Title: "Outbox", Status: artifact.StatusSuperseded, Body: []byte("# Outbox\n"),
	}
	successor := &artifact.Artifact{
		ID: "adr.outbox-v2", Type: artifact.TypeADR, Slug: "outbox-v2",
		Title: "Outbox v2", Status: artifact.StatusDraft,
		Supersedes: "adr.outbox",
		Body:       []byte("# Outbox v2\n"),
	}

	// old is missing its superseded_by backlink.
	results := v.ValidateTree([]*artifact.Artifact{old, successor})
	var got *Result
	for _, r := range results {
		if r.ArtifactID == successor.ID {
			got = r
		}
	}
	found := false
	for _, ref := range got.BrokenRefs {
		if strings.Contains(ref, "not marked superseded_by") {
			found = true
		}
	}
	if !found {
		t.Errorf("BrokenRefs = %v, want asymmetric supersede", got.BrokenRefs)
	}

	// With the backlink set, the pair passes.
	old.SupersededBy = successor.ID
	results = v.ValidateTree([]*artifact.Artifact{old, successor})
	for _, r := range results {
		if len(r.BrokenRefs) != 0 {
			t.Errorf("BrokenRefs = %v, want none", r.BrokenRefs)
		}
	}
}
