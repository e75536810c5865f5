// Package lineage maintains the traceability graph between artifacts:
// a DAG whose edges run from each artifact's parents to the artifact,
// plus marked supersedes edges. It answers trace (ancestors) and impact
// (descendants) queries and rejects edges that would introduce a cycle.
package lineage

import (
	"errors"
	"fmt"
	"sort"

	"github.com/airsdlc/airtrack/artifact"
)

// EdgeKind distinguishes lineage edges from supersede edges.
type EdgeKind string

const (
	// EdgeParent is a lineage edge from a parent artifact to its child.
	EdgeParent EdgeKind = "parent"
	// EdgeSupersedes is an amendment edge from a retired artifact to its
	// successor.
	EdgeSupersedes EdgeKind = "supersedes"
)

// Sentinel errors for graph operations.
var (
	// ErrCycle is returned when an edge would make the graph cyclic.
	ErrCycle = errors.New("edge would create a cycle")
	// ErrUnknownNode is returned when a query names an absent artifact.
	ErrUnknownNode = errors.New("unknown artifact in lineage graph")
)

// Edge is a directed edge in the lineage graph.
type Edge struct {
	From artifact.ID
	To   artifact.ID
	Kind EdgeKind
}

// Graph is the lineage DAG over a set of artifacts.
type Graph struct {
	nodes    map[artifact.ID]*artifact.Artifact
	children map[artifact.ID][]Edge
	parents  map[artifact.ID][]Edge
	dangling []Edge
}

// New returns an empty lineage graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[artifact.ID]*artifact.Artifact),
		children: make(map[artifact.ID][]Edge),
		parents:  make(map[artifact.ID][]Edge),
	}
}

// Build constructs the lineage graph from a set of artifacts. Playbook
// patterns are reference material and are excluded. Edges whose source
// artifact is missing are recorded as dangling rather than failing the
// build; validation surfaces them.
func Build(artifacts []*artifact.Artifact) (*Graph, error) {
	g := New()

	for _, a := range artifacts {
		if a.Type == artifact.TypePattern {
			continue
		}
		g.nodes[a.ID] = a
	}

	for _, a := range artifacts {
		if a.Type == artifact.TypePattern {
			continue
		}
		for _, parent := range a.Parents {
			if err := g.addEdge(parent, a.ID, EdgeParent); err != nil {
				return nil, fmt.Errorf("lineage of %s: %w", a.ID, err)
			}
		}
		if a.Supersedes != "" {
			if err := g.addEdge(a.Supersedes, a.ID, EdgeSupersedes); err != nil {
				return nil, fmt.Errorf("lineage of %s: %w", a.ID, err)
			}
		}
	}

	return g, nil
}

// addEdge inserts an edge after checking it keeps the graph acyclic.
func (g *Graph) addEdge(from, to artifact.ID, kind EdgeKind) error {
	edge := Edge{From: from, To: to, Kind: kind}

	if _, ok := g.nodes[from]; !ok {
		g.dangling = append(g.dangling, edge)
		return nil
	}

	if from == to || g.reachable(to, from) {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, from, to)
	}

	g.children[from] = append(g.children[from], edge)
	g.parents[to] = append(g.parents[to], edge)
	return nil
}

// reachable reports whether dst can be reached from src along edges.
func (g *Graph) reachable(src, dst artifact.ID) bool {
	seen := make(map[artifact.ID]bool)
	stack := []artifact.ID{src}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == dst {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		for _, e := range g.children[n] {
			stack = append(stack, e.To)
		}
	}
	return false
}

// Node returns the artifact for an ID, if present.
func (g *Graph) Node(id artifact.ID) (*artifact.Artifact, bool) {
	a, ok := g.nodes[id]
	return a, ok
}

// Len returns the number of artifacts in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Dangling returns edges whose source artifact is absent from the tree.
func (g *Graph) Dangling() []Edge {
	return g.dangling
}

// Ancestors returns every artifact upstream of id (its trace), in
// breadth-first order from the nearest parents outward.
func (g *Graph) Ancestors(id artifact.ID) ([]artifact.ID, error) {
	return g.walk(id, g.parents, func(e Edge) artifact.ID { return e.From })
}

// Descendants returns every artifact downstream of id (its impact set),
// in breadth-first order from the nearest children outward.
func (g *Graph) Descendants(id artifact.ID) ([]artifact.ID, error) {
	return g.walk(id, g.children, func(e Edge) artifact.ID { return e.To })
}

func (g *Graph) walk(id artifact.ID, edges map[artifact.ID][]Edge, next func(Edge) artifact.ID) ([]artifact.ID, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}

	var order []artifact.ID
	seen := map[artifact.ID]bool{id: true}
	queue := []artifact.ID{id}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		// Deterministic expansion order.
		hop := append([]Edge(nil), edges[n]...)
		sort.Slice(hop, func(i, j int) bool { return next(hop[i]) < next(hop[j]) })
		for _, e := range hop {
			m := next(e)
			if seen[m] {
				continue
			}
			seen[m] = true
			order = append(order, m)
			queue = append(queue, m)
		}
	}
	return order, nil
}

// Roots returns the artifacts with no parents, sorted by ID.
func (g *Graph) Roots() []artifact.ID {
	var roots []artifact.ID
	for id := range g.nodes {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots
}

// TopoSort returns all artifacts in a deterministic topological order.
func (g *Graph) TopoSort() []artifact.ID {
	indegree := make(map[artifact.ID]int, len(g.nodes))
	for id := range g.nodes {
		indegree[id] = len(g.parents[id])
	}

	ready := g.Roots()
	var order []artifact.ID
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		var unlocked []artifact.ID
		for _, e := range g.children[n] {
			indegree[e.To]--
			if indegree[e.To] == 0 {
				unlocked = append(unlocked, e.To)
			}
		}
		sort.Slice(unlocked, func(i, j int) bool { return unlocked[i] < unlocked[j] })
		ready = append(ready, unlocked...)
	}
	return order
}
