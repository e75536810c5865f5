// Package events publishes artifact lifecycle events to NATS so other
// tooling (dashboards, bots, audit sinks) can follow the workflow.
// Publishing is best-effort: a nil connection disables it.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/airsdlc/airtrack/artifact"
)

// Kind classifies lifecycle events.
type Kind string

const (
	// KindCreated fires when an artifact is created.
	KindCreated Kind = "created"
	// KindTransitioned fires on every status transition.
	KindTransitioned Kind = "transitioned"
	// KindSuperseded fires when an artifact is replaced.
	KindSuperseded Kind = "superseded"
)

// SubjectPrefix is the root of the event subject hierarchy.
const SubjectPrefix = "airsdlc.artifact"

// Subject returns the NATS subject for an event.
// Format: airsdlc.artifact.{type}.{kind}
func Subject(t artifact.Type, kind Kind) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, t, kind)
}

// Event is the JSON payload published for every lifecycle change.
type Event struct {
	// EventID uniquely identifies this event.
	EventID string `json:"event_id"`

	// Kind is the event classification.
	Kind Kind `json:"kind"`

	// ArtifactID identifies the artifact.
	ArtifactID artifact.ID `json:"artifact_id"`

	// From is the status before a transition, empty for created events.
	From artifact.Status `json:"from,omitempty"`

	// To is the status after the event.
	To artifact.Status `json:"to"`

	// By identifies the actor.
	By string `json:"by,omitempty"`

	// SuccessorID is set on superseded events.
	SuccessorID artifact.ID `json:"successor_id,omitempty"`

	// At is when the event occurred.
	At time.Time `json:"at"`
}

// Validate checks the event has the required fields.
func (e *Event) Validate() error {
	if e.EventID == "" {
		return &artifact.ValidationError{Field: "event_id", Message: "event_id is required"}
	}
	if e.ArtifactID == "" {
		return &artifact.ValidationError{Field: "artifact_id", Message: "artifact_id is required"}
	}
	if e.Kind == "" {
		return &artifact.ValidationError{Field: "kind", Message: "kind is required"}
	}
	return nil
}

// Publisher publishes lifecycle events over a NATS connection.
type Publisher struct {
	nc  *nats.Conn
	now func() time.Time
}

// NewPublisher wraps a NATS connection. A nil connection yields a
// publisher that silently drops events, so callers never need to branch.
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc, now: time.Now}
}

// Created publishes a created event for an artifact.
func (p *Publisher) Created(a *artifact.Artifact) error {
	return p.publish(&Event{
		EventID:    uuid.New().String(),
		Kind:       KindCreated,
		ArtifactID: a.ID,
		To:         a.Status,
		By:         a.Author,
		At:         p.now(),
	}, a.Type)
}

// Transitioned publishes a transition event from a recorded status change.
func (p *Publisher) Transitioned(a *artifact.Artifact, change artifact.StatusChange) error {
	return p.publish(&Event{
		EventID:    uuid.New().String(),
		Kind:       KindTransitioned,
		ArtifactID: a.ID,
		From:       change.From,
		To:         change.To,
		By:         change.By,
		At:         change.At,
	}, a.Type)
}

// Superseded publishes a superseded event linking old and successor.
func (p *Publisher) Superseded(old *artifact.Artifact, successor *artifact.Artifact, by string) error {
	var from artifact.Status
	if n := len(old.StatusHistory); n > 0 {
		from = old.StatusHistory[n-1].From
	}
	return p.publish(&Event{
		EventID:     uuid.New().String(),
		Kind:        KindSuperseded,
		ArtifactID:  old.ID,
		From:        from,
		To:          artifact.StatusSuperseded,
		By:          by,
		SuccessorID: successor.ID,
		At:          p.now(),
	}, old.Type)
}

func (p *Publisher) publish(e *Event, t artifact.Type) error {
	if p.nc == nil {
		return nil // events disabled
	}
	if err := e.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.nc.Publish(Subject(t, e.Kind), data); err != nil {
		return fmt.Errorf("publish %s event: %w", e.Kind, err)
	}
	return nil
}
