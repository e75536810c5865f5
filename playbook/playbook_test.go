package playbook

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/airsdlc/airtrack/artifact"
	"github.com/airsdlc/airtrack/store"
)

// publishedPostMortem builds a store containing a published post-mortem
// hanging off a PRD.
func publishedPostMortem(t *testing.T) (*store.Manager, artifact.ID) {
	t.Helper()
	ctx := context.Background()

	m := store.NewManager(t.TempDir())
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	prd, err := m.Create(ctx, artifact.TypePRD, "Checkout revamp", "dana", nil)
	if err != nil {
		t.Fatalf("create prd: %v", err)
	}

	pm, err := m.Create(ctx, artifact.TypePostMortem, "Checkout outage", "dana", []artifact.ID{prd.ID})
	if err != nil {
		t.Fatalf("create postmortem: %v", err)
	}
	if _, err := m.UpdateBody(ctx, pm.ID, []byte("# Checkout outage\n\n## Timeline\n\nIt fell over.\n")); err != nil {
		t.Fatalf("update body: %v", err)
	}
	if _, err := m.Transition(ctx, pm.ID, artifact.StatusPublished, "dana"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	return m, pm.ID
}

func TestFromPostMortem(t *testing.T) {
	ctx := context.Background()
	m, pmID := publishedPostMortem(t)

	c := NewCurator(m, CuratorConfig{})
	pattern, err := c.FromPostMortem(ctx, pmID, "Graceful checkout degradation", "dana")
	if err != nil {
		t.Fatalf("FromPostMortem: %v", err)
	}

	if pattern.Type != artifact.TypePattern {
		t.Errorf("Type = %q", pattern.Type)
	}
	if pattern.Status != artifact.StatusDraft {
		t.Errorf("Status = %q, want draft", pattern.Status)
	}
	if pattern.DerivedFrom != pmID {
		t.Errorf("DerivedFrom = %q, want %q", pattern.DerivedFrom, pmID)
	}
	if len(pattern.Parents) != 0 {
		t.Errorf("pattern has parents %v, patterns stay out of the lineage graph", pattern.Parents)
	}
	if !strings.Contains(string(pattern.Body), "It fell over.") {
		t.Errorf("body does not carry post-mortem text:\n%s", pattern.Body)
	}

	// The reference survives a round trip through the store.
	reloaded, err := m.Load(ctx, pattern.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.DerivedFrom != pmID {
		t.Errorf("reloaded DerivedFrom = %q", reloaded.DerivedFrom)
	}
}

func TestFromPostMortemRequiresPublished(t *testing.T) {
	ctx := context.Background()

	m := store.NewManager(t.TempDir())
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	prd, err := m.Create(ctx, artifact.TypePRD, "Search relaunch", "dana", nil)
	if err != nil {
		t.Fatalf("create prd: %v", err)
	}
	pm, err := m.Create(ctx, artifact.TypePostMortem, "Search brownout", "dana", []artifact.ID{prd.ID})
	if err != nil {
		t.Fatalf("create postmortem: %v", err)
	}

	c := NewCurator(m, CuratorConfig{})
	if _, err := c.FromPostMortem(ctx, pm.ID, "", "dana"); !errors.Is(err, ErrNotPublished) {
		t.Errorf("err = %v, want ErrNotPublished", err)
	}
}

func TestFromPostMortemRejectsOtherTypes(t *testing.T) {
	ctx := context.Background()
	m, _ := publishedPostMortem(t)

	prds, err := m.ListByType(ctx, artifact.TypePRD)
	if err != nil || len(prds) == 0 {
		t.Fatalf("list prds: %v", err)
	}

	c := NewCurator(m, CuratorConfig{})
	if _, err := c.FromPostMortem(ctx, prds[0].ID, "", "dana"); err == nil {
		t.Error("expected error distilling from a PRD")
	}
}
