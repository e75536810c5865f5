// Package artifact defines the AirSDLC artifact model: typed documents
// (PRD, DAA, TIP, RFC, ADR, Bolt, post-mortem, playbook pattern) with a
// per-type status state machine, lineage links, and status history.
package artifact

import (
	"fmt"
	"time"
)

// Type identifies the kind of artifact.
type Type string

const (
	// TypePRD is a product requirements document. Immutable once approved.
	TypePRD Type = "prd"

	// TypeDAA is a domain architecture analysis: the technology-agnostic
	// domain model. Locked once validated.
	TypeDAA Type = "daa"

	// TypeTIP is a technical implementation proposal, the lightweight
	// alternative to a DAA for simple features.
	TypeTIP Type = "tip"

	// TypeRFC is a design discussion document. Mutable during review.
	TypeRFC Type = "rfc"

	// TypeADR is a finalized architectural decision record.
	// Amendment is supersede-only.
	TypeADR Type = "adr"

	// TypeBolt is a small, discrete unit of implementation work.
	TypeBolt Type = "bolt"

	// TypePostMortem is an incident retrospective. It references the
	// ADR/Bolt/PRD lineage it reflects on and feeds the playbook.
	TypePostMortem Type = "postmortem"

	// TypePattern is a curated playbook pattern. Patterns are reference
	// material and do not participate in the lineage graph.
	TypePattern Type = "pattern"
)

// AllTypes lists every artifact type in lineage order.
var AllTypes = []Type{
	TypePRD, TypeDAA, TypeTIP, TypeRFC, TypeADR,
	TypeBolt, TypePostMortem, TypePattern,
}

// String returns the string representation of the type.
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the type is a known artifact type.
func (t Type) IsValid() bool {
	switch t {
	case TypePRD, TypeDAA, TypeTIP, TypeRFC, TypeADR,
		TypeBolt, TypePostMortem, TypePattern:
		return true
	default:
		return false
	}
}

// Status represents the lifecycle state of an artifact.
// Which statuses are legal depends on the artifact type.
type Status string

const (
	// StatusDraft is the initial state for document artifacts.
	StatusDraft Status = "draft"
	// StatusInReview indicates the artifact is under human review.
	StatusInReview Status = "in_review"
	// StatusApproved indicates a PRD has been approved by stakeholders.
	StatusApproved Status = "approved"
	// StatusValidated indicates a DAA or TIP has been validated by humans.
	StatusValidated Status = "validated"
	// StatusLocked indicates a validated DAA has been locked.
	StatusLocked Status = "locked"
	// StatusAccepted indicates an RFC or ADR has been accepted.
	StatusAccepted Status = "accepted"
	// StatusRejected indicates review rejected the artifact. Terminal.
	StatusRejected Status = "rejected"
	// StatusSuperseded indicates a newer artifact replaces this one. Terminal.
	StatusSuperseded Status = "superseded"
	// StatusPublished indicates a post-mortem has been published.
	StatusPublished Status = "published"
	// StatusCurated indicates a playbook pattern has been curated.
	StatusCurated Status = "curated"

	// StatusTodo is the initial state for bolts.
	StatusTodo Status = "todo"
	// StatusInProgress indicates a bolt is being worked on.
	StatusInProgress Status = "in_progress"
	// StatusDone indicates a bolt finished successfully. Terminal.
	StatusDone Status = "done"
	// StatusFailed indicates a bolt was abandoned or failed. Terminal.
	StatusFailed Status = "failed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// initialStatus maps each artifact type to its creation status.
var initialStatus = map[Type]Status{
	TypePRD:        StatusDraft,
	TypeDAA:        StatusDraft,
	TypeTIP:        StatusDraft,
	TypeRFC:        StatusDraft,
	TypeADR:        StatusDraft,
	TypeBolt:       StatusTodo,
	TypePostMortem: StatusDraft,
	TypePattern:    StatusDraft,
}

// InitialStatus returns the status a newly created artifact of the given
// type starts in.
func InitialStatus(t Type) Status {
	return initialStatus[t]
}

// transitions maps each artifact type to its legal status transitions.
// Statuses absent from a type's map are terminal for that type.
var transitions = map[Type]map[Status][]Status{
	TypePRD: {
		StatusDraft:    {StatusInReview},
		StatusInReview: {StatusApproved, StatusRejected},
		StatusApproved: {StatusSuperseded},
	},
	TypeDAA: {
		StatusDraft:     {StatusInReview},
		StatusInReview:  {StatusValidated, StatusRejected},
		StatusValidated: {StatusLocked},
		StatusLocked:    {StatusSuperseded},
	},
	TypeTIP: {
		StatusDraft:     {StatusValidated, StatusRejected},
		StatusValidated: {StatusSuperseded},
	},
	TypeRFC: {
		StatusDraft:    {StatusInReview},
		StatusInReview: {StatusAccepted, StatusRejected},
	},
	TypeADR: {
		StatusDraft:    {StatusAccepted},
		StatusAccepted: {StatusSuperseded},
	},
	TypeBolt: {
		StatusTodo:       {StatusInProgress},
		StatusInProgress: {StatusDone, StatusFailed},
	},
	TypePostMortem: {
		StatusDraft: {StatusPublished},
	},
	TypePattern: {
		StatusDraft: {StatusCurated},
	},
}

// ValidStatus returns true if the status is legal for the given type.
func (s Status) ValidStatus(t Type) bool {
	table, ok := transitions[t]
	if !ok {
		return false
	}
	if _, ok := table[s]; ok {
		return true
	}
	// Terminal statuses appear only as transition targets.
	for _, targets := range table {
		for _, target := range targets {
			if target == s {
				return true
			}
		}
	}
	return false
}

// CanTransitionTo returns true if an artifact of the given type may move
// from this status to the target status.
func (s Status) CanTransitionTo(t Type, target Status) bool {
	table, ok := transitions[t]
	if !ok {
		return false
	}
	for _, allowed := range table[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Terminal returns true if the status is terminal for the given type.
func (s Status) Terminal(t Type) bool {
	if !s.ValidStatus(t) {
		return false
	}
	return len(transitions[t][s]) == 0
}

// immutableFrom maps artifact types to the statuses from which the
// document body may no longer change. Amendment past this point is
// supersede-only.
var immutableFrom = map[Type][]Status{
	TypePRD:        {StatusApproved, StatusSuperseded},
	TypeDAA:        {StatusValidated, StatusLocked, StatusSuperseded},
	TypeTIP:        {StatusValidated, StatusSuperseded},
	TypeRFC:        {StatusAccepted, StatusRejected},
	TypeADR:        {StatusAccepted, StatusSuperseded},
	TypePostMortem: {StatusPublished},
}

// Immutable returns true if an artifact of the given type with this
// status may no longer have its body edited.
func (s Status) Immutable(t Type) bool {
	for _, from := range immutableFrom[t] {
		if from == s {
			return true
		}
	}
	return false
}

// StatusChange records a single status transition.
type StatusChange struct {
	// From is the status before the transition.
	From Status `yaml:"from" json:"from"`

	// To is the status after the transition.
	To Status `yaml:"to" json:"to"`

	// By identifies who performed the transition.
	By string `yaml:"by,omitempty" json:"by,omitempty"`

	// At is when the transition occurred.
	At time.Time `yaml:"at" json:"at"`
}

// Artifact is a single AirSDLC document with its tracked metadata.
type Artifact struct {
	// ID is the typed identifier, format "{type}.{slug}".
	ID ID `yaml:"id" json:"id"`

	// Type is the artifact type.
	Type Type `yaml:"type" json:"type"`

	// Slug is the URL-friendly identifier used for file paths.
	Slug string `yaml:"slug" json:"slug"`

	// Title is the human-readable title.
	Title string `yaml:"title" json:"title"`

	// Status is the current lifecycle state.
	Status Status `yaml:"status" json:"status"`

	// Author is who created the artifact.
	Author string `yaml:"author,omitempty" json:"author,omitempty"`

	// CreatedAt is when the artifact was created.
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`

	// UpdatedAt is when the artifact was last modified.
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`

	// Parents are the lineage predecessors of this artifact.
	Parents []ID `yaml:"parents,omitempty" json:"parents,omitempty"`

	// Supersedes is the artifact this one replaces, if any.
	Supersedes ID `yaml:"supersedes,omitempty" json:"supersedes,omitempty"`

	// SupersededBy is the artifact that replaced this one, if any.
	SupersededBy ID `yaml:"superseded_by,omitempty" json:"superseded_by,omitempty"`

	// DerivedFrom references the post-mortem a playbook pattern was
	// distilled from. Reference only, not a lineage edge.
	DerivedFrom ID `yaml:"derived_from,omitempty" json:"derived_from,omitempty"`

	// StatusHistory records every transition in order.
	StatusHistory []StatusChange `yaml:"history,omitempty" json:"history,omitempty"`

	// Body is the markdown document body below the frontmatter.
	Body []byte `yaml:"-" json:"-"`
}

// ValidationError describes an invalid artifact field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the artifact's metadata for internal consistency.
func (a *Artifact) Validate() error {
	if !a.Type.IsValid() {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unknown artifact type %q", a.Type)}
	}
	if err := ValidateSlug(a.Slug); err != nil {
		return &ValidationError{Field: "slug", Message: err.Error()}
	}
	if a.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if want := NewID(a.Type, a.Slug); a.ID != want {
		return &ValidationError{Field: "id", Message: fmt.Sprintf("id %q does not match type and slug (want %q)", a.ID, want)}
	}
	if !a.Status.ValidStatus(a.Type) {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("status %q is not valid for type %q", a.Status, a.Type)}
	}
	for _, parent := range a.Parents {
		if _, _, err := ParseID(string(parent)); err != nil {
			return &ValidationError{Field: "parents", Message: err.Error()}
		}
	}
	if a.Type == TypePattern && len(a.Parents) > 0 {
		return &ValidationError{Field: "parents", Message: "playbook patterns do not take lineage parents"}
	}
	return nil
}
