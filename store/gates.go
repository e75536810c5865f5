package store

import (
	"context"
	"fmt"

	"github.com/airsdlc/airtrack/artifact"
)

// parentRule describes the lineage requirement for creating one artifact type.
type parentRule struct {
	// allowed maps acceptable parent types to the statuses that satisfy
	// the gate. An empty status list accepts the parent in any status.
	allowed map[artifact.Type][]artifact.Status

	// required indicates at least one parent must be present.
	required bool

	// describe is the gate description used in error messages.
	describe string
}

// creationRules encodes the phase gates of the methodology lineage:
// PRD -> (DAA|TIP) -> RFC -> ADR -> Bolt, with post-mortems referencing
// back into the lineage. PRDs and patterns are roots.
var creationRules = map[artifact.Type]parentRule{
	artifact.TypePRD: {
		allowed:  map[artifact.Type][]artifact.Status{},
		describe: "a PRD takes no lineage parents",
	},
	artifact.TypeDAA: {
		allowed: map[artifact.Type][]artifact.Status{
			artifact.TypePRD: {artifact.StatusApproved},
		},
		required: true,
		describe: "a DAA requires an approved PRD parent",
	},
	artifact.TypeTIP: {
		allowed: map[artifact.Type][]artifact.Status{
			artifact.TypePRD: {artifact.StatusApproved},
		},
		required: true,
		describe: "a TIP requires an approved PRD parent",
	},
	artifact.TypeRFC: {
		allowed: map[artifact.Type][]artifact.Status{
			artifact.TypeDAA: {artifact.StatusValidated, artifact.StatusLocked},
			artifact.TypeTIP: {artifact.StatusValidated},
		},
		required: true,
		describe: "an RFC requires a validated DAA or TIP parent",
	},
	artifact.TypeADR: {
		allowed: map[artifact.Type][]artifact.Status{
			artifact.TypeRFC: {artifact.StatusAccepted},
		},
		required: true,
		describe: "an ADR requires an accepted RFC parent",
	},
	artifact.TypeBolt: {
		allowed: map[artifact.Type][]artifact.Status{
			artifact.TypeADR: {artifact.StatusAccepted},
		},
		required: true,
		describe: "a bolt requires an accepted ADR parent",
	},
	artifact.TypePostMortem: {
		allowed: map[artifact.Type][]artifact.Status{
			artifact.TypeADR:  nil,
			artifact.TypeBolt: nil,
			artifact.TypePRD:  nil,
		},
		required: true,
		describe: "a post-mortem references at least one ADR, bolt, or PRD",
	},
	artifact.TypePattern: {
		allowed:  map[artifact.Type][]artifact.Status{},
		describe: "a playbook pattern takes no lineage parents",
	},
}

// checkCreationGate verifies the lineage parents satisfy the creation
// rule for the given artifact type. Every listed parent must exist.
func (m *Manager) checkCreationGate(ctx context.Context, t artifact.Type, parents []artifact.ID) error {
	rule := creationRules[t]

	if rule.required && len(parents) == 0 {
		return fmt.Errorf("%w: %s", ErrGate, rule.describe)
	}
	if len(rule.allowed) == 0 && len(parents) > 0 {
		return fmt.Errorf("%w: %s", ErrGate, rule.describe)
	}

	for _, parentID := range parents {
		parent, err := m.Load(ctx, parentID)
		if err != nil {
			return fmt.Errorf("resolve parent %s: %w", parentID, err)
		}

		statuses, ok := rule.allowed[parent.Type]
		if !ok {
			return fmt.Errorf("%w: %s (got %s parent %s)", ErrGate, rule.describe, parent.Type, parentID)
		}
		if len(statuses) == 0 {
			continue // any status accepted
		}
		if !statusIn(parent.Status, statuses) {
			return fmt.Errorf("%w: %s (parent %s is %s)", ErrGate, rule.describe, parentID, parent.Status)
		}
	}

	return nil
}

// checkTransitionGate enforces the cross-artifact conditions that must
// hold at transition time, beyond the per-type transition table.
func (m *Manager) checkTransitionGate(ctx context.Context, a *artifact.Artifact, target artifact.Status) error {
	switch {
	case a.Type == artifact.TypeADR && target == artifact.StatusAccepted:
		// Parent RFC must still be accepted.
		return m.requireParentStatus(ctx, a, artifact.TypeRFC, artifact.StatusAccepted,
			"accepting an ADR requires its RFC to be accepted")

	case a.Type == artifact.TypeBolt && target == artifact.StatusInProgress:
		// The decision the bolt implements must still stand.
		return m.requireParentStatus(ctx, a, artifact.TypeADR, artifact.StatusAccepted,
			"starting a bolt requires its ADR to still be accepted")
	}
	return nil
}

func (m *Manager) requireParentStatus(ctx context.Context, a *artifact.Artifact, parentType artifact.Type, want artifact.Status, describe string) error {
	for _, parentID := range a.Parents {
		if parentID.Type() != parentType {
			continue
		}
		parent, err := m.Load(ctx, parentID)
		if err != nil {
			return fmt.Errorf("resolve parent %s: %w", parentID, err)
		}
		if parent.Status == want {
			return nil
		}
		return fmt.Errorf("%w: %s (parent %s is %s)", ErrGate, describe, parentID, parent.Status)
	}
	return fmt.Errorf("%w: %s (no %s parent)", ErrGate, describe, parentType)
}

func statusIn(s artifact.Status, list []artifact.Status) bool {
	for _, candidate := range list {
		if s == candidate {
			return true
		}
	}
	return false
}

// GateRequiresParent reports whether creating an artifact of this type
// requires at least one lineage parent.
func GateRequiresParent(t artifact.Type) bool {
	return creationRules[t].required
}

// GateAllowsParentType reports whether the parent type is legal at all
// for the child type, regardless of status.
func GateAllowsParentType(child, parent artifact.Type) bool {
	_, ok := creationRules[child].allowed[parent]
	return ok
}

// GateAllowsParent reports whether a parent of the given type, in the
// given status, satisfies the creation gate for the child type.
func GateAllowsParent(child, parent artifact.Type, parentStatus artifact.Status) bool {
	statuses, ok := creationRules[child].allowed[parent]
	if !ok {
		return false
	}
	return len(statuses) == 0 || statusIn(parentStatus, statuses)
}

// GateDescription returns the creation gate description for a type, as
// used in error messages.
func GateDescription(t artifact.Type) string {
	return creationRules[t].describe
}
