// Package validation checks artifact documents for the structure the
// methodology expects: required sections per artifact type, resolvable
// cross-references, and gate-consistent lineage. Failures produce
// feedback suitable for showing the author.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/airsdlc/airtrack/artifact"
)

// Pre-compiled regex patterns.
var (
	// nextSectionRe matches markdown section headers (# or ##).
	nextSectionRe = regexp.MustCompile(`(?m)^#{1,2}\s+`)
	// emptySectionRe matches empty sections (## header followed immediately by another ##).
	emptySectionRe = regexp.MustCompile(`(?m)^##\s+[^\n]+\n\s*\n##`)
)

// Result contains the result of document validation.
type Result struct {
	Valid           bool              `json:"valid"`
	ArtifactID      artifact.ID       `json:"artifact_id"`
	MissingSections []string          `json:"missing_sections,omitempty"`
	BrokenRefs      []string          `json:"broken_refs,omitempty"`
	Warnings        []string          `json:"warnings,omitempty"`
	SectionDetails  map[string]string `json:"section_details,omitempty"`
}

// SectionRequirement defines a required section.
type SectionRequirement struct {
	Name        string         // Human-readable name
	Pattern     *regexp.Regexp // Regex pattern to match the section header
	MinContent  int            // Minimum content length after header (0 = just header required)
	Description string         // Description for feedback
}

// Validator validates artifact documents.
type Validator struct {
	// RequiredSections maps artifact types to their required section patterns.
	RequiredSections map[artifact.Type][]SectionRequirement
}

func title() SectionRequirement {
	return SectionRequirement{
		Name:        "Title",
		Pattern:     regexp.MustCompile(`(?m)^#\s+.+`),
		Description: "Document title (# heading)",
	}
}

func section(name string, pattern string, minContent int, description string) SectionRequirement {
	return SectionRequirement{
		Name:        name,
		Pattern:     regexp.MustCompile(pattern),
		MinContent:  minContent,
		Description: description,
	}
}

// NewValidator creates a document validator with the default requirements
// for each artifact type.
func NewValidator() *Validator {
	return &Validator{
		RequiredSections: map[artifact.Type][]SectionRequirement{
			artifact.TypePRD: {
				title(),
				section("Problem", `(?mi)^##\s+problem\b`, 50, "Problem statement"),
				section("Goals", `(?mi)^##\s+goals?\b`, 30, "Goals section"),
				section("Requirements", `(?mi)^##\s+requirements?\b`, 50, "Business requirements"),
			},
			artifact.TypeDAA: {
				title(),
				section("Bounded Contexts", `(?mi)^##\s+bounded\s+contexts?\b`, 30, "Bounded contexts of the domain"),
				section("Aggregates", `(?mi)^##\s+aggregates?\b`, 30, "Aggregates and their roots"),
				section("Invariants", `(?mi)^##\s+invariants?\b`, 30, "Domain invariants"),
				section("Operations", `(?mi)^##\s+operations?\b`, 30, "Domain operations"),
			},
			artifact.TypeTIP: {
				title(),
				section("Approach", `(?mi)^##\s+approach\b`, 50, "Technical approach"),
				section("Impact", `(?mi)^##\s+impact\b`, 20, "Impact on existing code"),
			},
			artifact.TypeRFC: {
				title(),
				section("Summary", `(?mi)^##\s+summary\b`, 30, "Summary of the design"),
				section("Design", `(?mi)^##\s+design\b`, 100, "Design discussion"),
				section("Alternatives", `(?mi)^##\s+alternatives?\b`, 30, "Alternatives considered"),
			},
			artifact.TypeADR: {
				title(),
				section("Context", `(?mi)^##\s+context\b`, 50, "Context for the decision"),
				section("Decision", `(?mi)^##\s+decision\b`, 30, "The decision taken"),
				section("Consequences", `(?mi)^##\s+consequences?\b`, 30, "Consequences of the decision"),
			},
			artifact.TypeBolt: {
				title(),
				section("Task", `(?mi)^##\s+task\b`, 30, "What to implement"),
				section("Acceptance Criteria", `(?mi)^##\s+acceptance\s+criteria\b`, 20, "Conditions for done"),
			},
			artifact.TypePostMortem: {
				title(),
				section("Timeline", `(?mi)^##\s+timeline\b`, 30, "Incident timeline"),
				section("Root Cause", `(?mi)^##\s+root\s+cause\b`, 30, "Root cause analysis"),
				section("Lessons", `(?mi)^##\s+lessons\b`, 30, "Lessons learned"),
			},
			artifact.TypePattern: {
				title(),
				section("Context", `(?mi)^##\s+context\b`, 20, "When the pattern applies"),
				section("Pattern", `(?mi)^##\s+pattern\b`, 50, "The pattern itself"),
			},
		},
	}
}

// ValidateDocument validates an artifact's body against its type's
// section requirements.
func (v *Validator) ValidateDocument(a *artifact.Artifact) *Result {
	content := string(a.Body)
	result := &Result{
		Valid:          true,
		ArtifactID:     a.ID,
		SectionDetails: make(map[string]string),
	}

	requirements, ok := v.RequiredSections[a.Type]
	if !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("no section requirements for type %s", a.Type))
		return result
	}

	for _, req := range requirements {
		match := req.Pattern.FindStringIndex(content)
		if match == nil {
			result.Valid = false
			result.MissingSections = append(result.MissingSections,
				fmt.Sprintf("%s: %s", req.Name, req.Description))
			continue
		}

		if req.MinContent > 0 {
			sectionStart := match[1]
			sectionContent := content[sectionStart:]
			if next := nextSectionRe.FindStringIndex(sectionContent); next != nil {
				sectionContent = sectionContent[:next[0]]
			}

			trimmed := strings.TrimSpace(sectionContent)
			if len(trimmed) < req.MinContent {
				result.Valid = false
				result.MissingSections = append(result.MissingSections,
					fmt.Sprintf("%s: section too short (min %d chars, got %d)",
						req.Name, req.MinContent, len(trimmed)))
				continue
			}
			result.SectionDetails[req.Name] = fmt.Sprintf("OK (%d chars)", len(trimmed))
		} else {
			result.SectionDetails[req.Name] = "OK"
		}
	}

	if emptySectionRe.MatchString(content) {
		result.Warnings = append(result.Warnings, "contains empty sections")
	}

	return result
}

// FormatFeedback formats validation results as author-facing feedback.
func (r *Result) FormatFeedback() string {
	if r.Valid && len(r.Warnings) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Validation: %s\n\n", r.ArtifactID)

	if len(r.MissingSections) > 0 {
		sb.WriteString("### Missing or incomplete sections\n\n")
		for _, section := range r.MissingSections {
			fmt.Fprintf(&sb, "- %s\n", section)
		}
		sb.WriteString("\n")
	}

	if len(r.BrokenRefs) > 0 {
		sb.WriteString("### Broken references\n\n")
		for _, ref := range r.BrokenRefs {
			fmt.Fprintf(&sb, "- %s\n", ref)
		}
		sb.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		sb.WriteString("### Warnings\n\n")
		for _, warning := range r.Warnings {
			fmt.Fprintf(&sb, "- %s\n", warning)
		}
	}

	return sb.String()
}
