package lineage

import (
	"errors"
	"strings"
	"testing"

	"github.com/airsdlc/airtrack/artifact"
)

func art(t artifact.Type, slug string, parents ...artifact.ID) *artifact.Artifact {
	return &artifact.Artifact{
		ID:      artifact.NewID(t, slug),
		Type:    t,
		Slug:    slug,
		Title:   slug,
		Status:  artifact.InitialStatus(t),
		Parents: parents,
	}
}

// chain builds prd -> daa -> rfc -> adr -> bolt.
func chain() []*artifact.Artifact {
	prd := art(artifact.TypePRD, "checkout")
	daa := art(artifact.TypeDAA, "checkout-domain", prd.ID)
	rfc := art(artifact.TypeRFC, "cancellation", daa.ID)
	adr := art(artifact.TypeADR, "outbox", rfc.ID)
	bolt := art(artifact.TypeBolt, "outbox-table", adr.ID)
	return []*artifact.Artifact{prd, daa, rfc, adr, bolt}
}

func TestBuildAndWalk(t *testing.T) {
	g, err := Build(chain())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if g.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", g.Len())
	}

	anc, err := g.Ancestors("adr.outbox")
	if err != nil {
		t.Fatalf("Ancestors() error = %v", err)
	}
	want := []artifact.ID{"rfc.cancellation", "daa.checkout-domain", "prd.checkout"}
	if len(anc) != len(want) {
		t.Fatalf("Ancestors() = %v, want %v", anc, want)
	}
	for i := range want {
		if anc[i] != want[i] {
			t.Errorf("Ancestors()[%d] = %s, want %s", i, anc[i], want[i])
		}
	}

	desc, err := g.Descendants("daa.checkout-domain")
	if err != nil {
		t.Fatalf("Descendants() error = %v", err)
	}
	if len(desc) != 3 || desc[0] != "rfc.cancellation" || desc[2] != "bolt.outbox-table" {
		t.Errorf("Descendants() = %v", desc)
	}

	if _, err := g.Ancestors("prd.ghost"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Ancestors(ghost) error = %v, want ErrUnknownNode", err)
	}
}

func TestCycleDetection(t *testing.T) {
	a := art(artifact.TypePRD, "a")
	b := art(artifact.TypeDAA, "b", a.ID)
	// Manufacture a cycle: a claims b as parent too.
	a.Parents = []artifact.ID{b.ID}

	if _, err := Build([]*artifact.Artifact{a, b}); !errors.Is(err, ErrCycle) {
		t.Errorf("Build(cyclic) error = %v, want ErrCycle", err)
	}
}

func TestDanglingParents(t *testing.T) {
	orphan := art(artifact.TypeDAA, "orphan", artifact.ID("prd.missing"))
	g, err := Build([]*artifact.Artifact{orphan})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	dangling := g.Dangling()
	if len(dangling) != 1 || dangling[0].From != "prd.missing" {
		t.Errorf("Dangling() = %v", dangling)
	}
}

func TestPatternsExcluded(t *testing.T) {
	pattern := art(artifact.TypePattern, "outbox-pattern")
	g, err := Build(append(chain(), pattern))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.Node(pattern.ID); ok {
		t.Error("playbook pattern present in lineage graph")
	}
}

func TestSupersedesEdge(t *testing.T) {
	arts := chain()
	v2 := art(artifact.TypeADR, "outbox-v2", "rfc.cancellation")
	v2.Supersedes = "adr.outbox"
	arts = append(arts, v2)

	g, err := Build(arts)
	if err != nil {
		t.Fatal(err)
	}

	desc, err := g.Descendants("adr.outbox")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, id := range desc {
		if id == v2.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("Descendants(adr.outbox) = %v, want to include %s", desc, v2.ID)
	}
}

func TestTopoSortAndRoots(t *testing.T) {
	g, err := Build(chain())
	if err != nil {
		t.Fatal(err)
	}

	roots := g.Roots()
	if len(roots) != 1 || roots[0] != "prd.checkout" {
		t.Errorf("Roots() = %v", roots)
	}

	order := g.TopoSort()
	if len(order) != 5 {
		t.Fatalf("TopoSort() len = %d, want 5", len(order))
	}
	pos := make(map[artifact.ID]int)
	for i, id := range order {
		pos[id] = i
	}
	if pos["prd.checkout"] > pos["daa.checkout-domain"] || pos["adr.outbox"] > pos["bolt.outbox-table"] {
		t.Errorf("TopoSort() order = %v", order)
	}
}

func TestWriteDOT(t *testing.T) {
	g, err := Build(chain())
	if err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder
	if err := g.WriteDOT(&sb); err != nil {
		t.Fatalf("WriteDOT() error = %v", err)
	}
	out := sb.String()
	if !strings.HasPrefix(out, "digraph lineage {") {
		t.Errorf("DOT output missing header: %q", out)
	}
	if !strings.Contains(out, `"prd.checkout" -> "daa.checkout-domain"`) {
		t.Errorf("DOT output missing edge:\n%s", out)
	}
}
