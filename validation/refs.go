package validation

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/airsdlc/airtrack/artifact"
	"github.com/airsdlc/airtrack/store"
)

// mdLinkRe captures the target of inline markdown links.
var mdLinkRe = regexp.MustCompile(`\]\(([^)\s]+)\)`)

// ValidateTree validates every artifact's document structure and its
// cross-references against the full artifact set: parents must resolve,
// satisfy the creation gates (type and status), supersede links must be
// symmetric, and internal markdown links must point at documents that
// exist. Gate checks run against the current tree, so documents written
// out of band are held to the same rules Create enforces.
func (v *Validator) ValidateTree(artifacts []*artifact.Artifact) []*Result {
	byID := make(map[artifact.ID]*artifact.Artifact, len(artifacts))
	docPaths := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		byID[a.ID] = a
		docPaths[relDocPath(a)] = true
	}

	results := make([]*Result, 0, len(artifacts))
	for _, a := range artifacts {
		result := v.ValidateDocument(a)
		checkRefs(result, a, byID, docPaths)
		results = append(results, result)
	}
	return results
}

func checkRefs(result *Result, a *artifact.Artifact, byID map[artifact.ID]*artifact.Artifact, docPaths map[string]bool) {
	if store.GateRequiresParent(a.Type) && len(a.Parents) == 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no parents listed: %s", store.GateDescription(a.Type)))
	}

	for _, parentID := range a.Parents {
		parent, ok := byID[parentID]
		if !ok {
			result.Valid = false
			result.BrokenRefs = append(result.BrokenRefs,
				fmt.Sprintf("parent %s does not resolve", parentID))
			continue
		}
		if !store.GateAllowsParentType(a.Type, parent.Type) {
			result.Valid = false
			result.BrokenRefs = append(result.BrokenRefs,
				fmt.Sprintf("parent %s: a %s may not descend from a %s", parentID, a.Type, parent.Type))
			continue
		}
		switch {
		case store.GateAllowsParent(a.Type, parent.Type, parent.Status):
			if parent.Status == artifact.StatusRejected {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("parent %s was rejected", parentID))
			}
		case parent.Status == artifact.StatusSuperseded:
			// The gate held when the artifact was created; the lineage
			// has aged. The successor linkage carries the history.
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("parent %s has been superseded", parentID))
		default:
			result.Valid = false
			result.BrokenRefs = append(result.BrokenRefs,
				fmt.Sprintf("parent %s is %s: %s", parentID, parent.Status, store.GateDescription(a.Type)))
		}
	}

	if a.Status == artifact.StatusSuperseded && a.SupersededBy == "" {
		result.Warnings = append(result.Warnings,
			"superseded without a successor recorded in superseded_by")
	}

	if a.Supersedes != "" {
		old, ok := byID[a.Supersedes]
		switch {
		case !ok:
			result.Valid = false
			result.BrokenRefs = append(result.BrokenRefs,
				fmt.Sprintf("supersedes %s does not resolve", a.Supersedes))
		case old.SupersededBy != a.ID:
			result.Valid = false
			result.BrokenRefs = append(result.BrokenRefs,
				fmt.Sprintf("supersedes %s, but it is not marked superseded_by %s", a.Supersedes, a.ID))
		}
	}

	if a.DerivedFrom != "" {
		if pm, ok := byID[a.DerivedFrom]; !ok || pm.Type != artifact.TypePostMortem {
			result.Valid = false
			result.BrokenRefs = append(result.BrokenRefs,
				fmt.Sprintf("derived_from %s is not a post-mortem", a.DerivedFrom))
		}
	}

	for _, target := range internalLinks(a) {
		if !docPaths[target] {
			result.Valid = false
			result.BrokenRefs = append(result.BrokenRefs,
				fmt.Sprintf("link %s does not resolve", target))
		}
	}
}

// internalLinks extracts markdown link targets that point inside the
// artifact tree, normalized relative to the tree root.
func internalLinks(a *artifact.Artifact) []string {
	var targets []string
	for _, match := range mdLinkRe.FindAllStringSubmatch(string(a.Body), -1) {
		target := match[1]
		if strings.Contains(target, "://") || strings.HasPrefix(target, "#") || strings.HasPrefix(target, "mailto:") {
			continue
		}
		if !strings.HasSuffix(target, ".md") {
			continue
		}
		// Links are written relative to the document's own directory.
		normalized := path.Clean(path.Join(dirFor(a.Type), target))
		targets = append(targets, normalized)
	}
	return targets
}

// relDocPath returns the document path relative to the tree root.
func relDocPath(a *artifact.Artifact) string {
	return path.Join(dirFor(a.Type), a.Slug+".md")
}

// dirFor mirrors the store's directory layout. Patterns live under playbook/.
func dirFor(t artifact.Type) string {
	if t == artifact.TypePattern {
		return "playbook"
	}
	return t.String()
}
