package lineage

import (
	"fmt"
	"io"
	"sort"

	"github.com/airsdlc/airtrack/artifact"
)

// WriteDOT renders the lineage graph in Graphviz DOT format. Nodes are
// labeled with the artifact ID and status; supersedes edges are dashed.
func (g *Graph) WriteDOT(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph lineage {"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "  rankdir=LR;"); err != nil {
		return err
	}

	ids := make([]artifact.ID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		a := g.nodes[id]
		if _, err := fmt.Fprintf(w, "  %q [label=%q];\n", id, fmt.Sprintf("%s\n%s", id, a.Status)); err != nil {
			return err
		}
	}

	for _, id := range ids {
		edges := append([]Edge(nil), g.children[id]...)
		sort.Slice(edges, func(i, j int) bool { return edges[i].To < edges[j].To })
		for _, e := range edges {
			attr := ""
			if e.Kind == EdgeSupersedes {
				attr = " [style=dashed label=supersedes]"
			}
			if _, err := fmt.Fprintf(w, "  %q -> %q%s;\n", e.From, e.To, attr); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}
