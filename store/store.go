package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/airsdlc/airtrack/artifact"
)

// Create creates a new artifact of the given type. Lineage parents are
// checked against the creation gates before anything touches disk.
func (m *Manager) Create(ctx context.Context, t artifact.Type, title, author string, parents []artifact.ID) (*artifact.Artifact, error) {
	return m.CreateWithSlug(ctx, t, artifact.Slugify(title), title, author, parents)
}

// CreateWithSlug creates a new artifact with an explicit slug.
func (m *Manager) CreateWithSlug(ctx context.Context, t artifact.Type, slug, title, author string, parents []artifact.ID) (*artifact.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !m.Initialized() {
		return nil, ErrNotInitialized
	}
	if !t.IsValid() {
		return nil, fmt.Errorf("unknown artifact type %q", t)
	}
	if err := artifact.ValidateSlug(slug); err != nil {
		return nil, err
	}
	if title == "" {
		return nil, &artifact.ValidationError{Field: "title", Message: "title is required"}
	}

	docPath := m.DocPath(t, slug)
	if _, err := os.Stat(docPath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, artifact.NewID(t, slug))
	}

	if err := m.checkCreationGate(ctx, t, parents); err != nil {
		return nil, err
	}

	now := m.now()
	a := &artifact.Artifact{
		ID:        artifact.NewID(t, slug),
		Type:      t,
		Slug:      slug,
		Title:     title,
		Status:    artifact.InitialStatus(t),
		Author:    author,
		CreatedAt: now,
		UpdatedAt: now,
		Parents:   parents,
		Body:      []byte(fmt.Sprintf("# %s\n", title)),
	}

	if err := m.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Load reads an artifact by ID.
func (m *Manager) Load(ctx context.Context, id artifact.ID) (*artifact.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, slug, err := artifact.ParseID(string(id))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(m.DocPath(t, slug))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	a, err := artifact.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", id, err)
	}
	return a, nil
}

// Save writes an artifact document to its canonical path.
func (m *Manager) Save(ctx context.Context, a *artifact.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := artifact.ComposeDocument(a)
	if err != nil {
		return err
	}

	docPath := m.DocPath(a.Type, a.Slug)
	if err := os.MkdirAll(m.TypePath(a.Type), 0755); err != nil {
		return fmt.Errorf("create type directory: %w", err)
	}
	if err := os.WriteFile(docPath, doc, 0644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// UpdateBody replaces the document body of a mutable artifact.
func (m *Manager) UpdateBody(ctx context.Context, id artifact.ID, body []byte) (*artifact.Artifact, error) {
	a, err := m.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if a.Status.Immutable(a.Type) {
		return nil, fmt.Errorf("%w: %s is %s", ErrImmutable, id, a.Status)
	}

	a.Body = body
	a.UpdatedAt = m.now()
	if err := m.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Transition moves an artifact to the target status, enforcing the
// per-type transition table and any phase gates, and appends the change
// to the artifact's status history.
func (m *Manager) Transition(ctx context.Context, id artifact.ID, target artifact.Status, by string) (*artifact.Artifact, error) {
	a, err := m.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !a.Status.CanTransitionTo(a.Type, target) {
		return nil, fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, id, a.Status, target)
	}

	if err := m.checkTransitionGate(ctx, a, target); err != nil {
		return nil, err
	}

	now := m.now()
	a.StatusHistory = append(a.StatusHistory, artifact.StatusChange{
		From: a.Status,
		To:   target,
		By:   by,
		At:   now,
	})
	a.Status = target
	a.UpdatedAt = now

	if err := m.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Supersede retires an artifact and creates its replacement. The
// replacement inherits the predecessor's parents, starts at its type's
// initial status, and the two are linked symmetrically.
func (m *Manager) Supersede(ctx context.Context, oldID artifact.ID, title, author string) (*artifact.Artifact, error) {
	old, err := m.Load(ctx, oldID)
	if err != nil {
		return nil, err
	}

	if !old.Status.CanTransitionTo(old.Type, artifact.StatusSuperseded) {
		return nil, fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, oldID, old.Status, artifact.StatusSuperseded)
	}

	slug := artifact.Slugify(title)
	if _, err := os.Stat(m.DocPath(old.Type, slug)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, artifact.NewID(old.Type, slug))
	}

	now := m.now()
	successor := &artifact.Artifact{
		ID:         artifact.NewID(old.Type, slug),
		Type:       old.Type,
		Slug:       slug,
		Title:      title,
		Status:     artifact.InitialStatus(old.Type),
		Author:     author,
		CreatedAt:  now,
		UpdatedAt:  now,
		Parents:    old.Parents,
		Supersedes: old.ID,
		Body:       []byte(fmt.Sprintf("# %s\n\nSupersedes %s.\n", title, old.ID)),
	}
	if err := m.Save(ctx, successor); err != nil {
		return nil, err
	}

	old.SupersededBy = successor.ID
	old.StatusHistory = append(old.StatusHistory, artifact.StatusChange{
		From: old.Status,
		To:   artifact.StatusSuperseded,
		By:   author,
		At:   now,
	})
	old.Status = artifact.StatusSuperseded
	old.UpdatedAt = now
	if err := m.Save(ctx, old); err != nil {
		return nil, err
	}

	return successor, nil
}

// Archive moves a terminal artifact under archive/.
func (m *Manager) Archive(ctx context.Context, id artifact.ID) error {
	a, err := m.Load(ctx, id)
	if err != nil {
		return err
	}

	if !a.Status.Terminal(a.Type) {
		return fmt.Errorf("%w: %s is %s", ErrNotTerminal, id, a.Status)
	}

	archiveDir := filepath.Join(m.ArchivePath(), typeDir(a.Type))
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	src := m.DocPath(a.Type, a.Slug)
	dst := filepath.Join(archiveDir, a.Slug+DocExt)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("archive artifact: %w", err)
	}
	return nil
}

// ListByType returns all active artifacts of a type, sorted by slug.
func (m *Manager) ListByType(ctx context.Context, t artifact.Type) ([]*artifact.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(m.TypePath(t))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s artifacts: %w", t, err)
	}

	artifacts := make([]*artifact.Artifact, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isDocName(entry.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.TypePath(t), entry.Name()))
		if err != nil {
			continue // skip unreadable entries
		}
		a, err := artifact.ParseDocument(data)
		if err != nil {
			continue // skip malformed documents; check surfaces them
		}
		artifacts = append(artifacts, a)
	}

	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Slug < artifacts[j].Slug })
	return artifacts, nil
}

// List returns all active artifacts across every type.
func (m *Manager) List(ctx context.Context) ([]*artifact.Artifact, error) {
	var all []*artifact.Artifact
	for _, t := range artifact.AllTypes {
		artifacts, err := m.ListByType(ctx, t)
		if err != nil {
			return nil, err
		}
		all = append(all, artifacts...)
	}
	return all, nil
}

func isDocName(name string) bool {
	return len(name) > len(DocExt) && name[len(name)-len(DocExt):] == DocExt
}

// MalformedDoc records a document under the tree that could not be
// parsed and is therefore invisible to List.
type MalformedDoc struct {
	// Path is relative to the tree root.
	Path string
	Err  error
}

// Malformed walks every type directory and returns the documents that
// fail to parse. List skips these silently so a single broken file does
// not take down serve; check calls Malformed to report them.
func (m *Manager) Malformed(ctx context.Context) ([]MalformedDoc, error) {
	var malformed []MalformedDoc
	for _, t := range artifact.AllTypes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(m.TypePath(t))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("scan %s artifacts: %w", t, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isDocName(entry.Name()) {
				continue
			}
			relPath := filepath.Join(typeDir(t), entry.Name())
			data, err := os.ReadFile(filepath.Join(m.TypePath(t), entry.Name()))
			if err != nil {
				malformed = append(malformed, MalformedDoc{Path: relPath, Err: err})
				continue
			}
			if _, err := artifact.ParseDocument(data); err != nil {
				malformed = append(malformed, MalformedDoc{Path: relPath, Err: err})
			}
		}
	}
	return malformed, nil
}
