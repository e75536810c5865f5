// Package store persists AirSDLC artifacts as frontmatter markdown files
// under the .airsdlc tree and enforces the lifecycle rules: legal status
// transitions, phase gates between artifact types, immutability of
// locked documents, and supersede-only amendment.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/airsdlc/airtrack/artifact"
)

// Directory constants for the .airsdlc structure.
const (
	RootDir     = ".airsdlc"
	ArchiveDir  = "archive"
	ConfigFile  = "config.yaml"
	DocExt      = ".md"
	PlaybookDir = "playbook"
)

// Manager provides file operations for the artifact tree.
type Manager struct {
	repoRoot string
	now      func() time.Time
}

// Option customizes a Manager during construction.
type Option func(*Manager)

// WithClock overrides the clock used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		m.now = clock
	}
}

// NewManager creates a new artifact manager for the given repository root.
func NewManager(repoRoot string, opts ...Option) *Manager {
	m := &Manager{
		repoRoot: repoRoot,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RootPath returns the full path to the .airsdlc directory.
func (m *Manager) RootPath() string {
	return filepath.Join(m.repoRoot, RootDir)
}

// ConfigPath returns the path to config.yaml.
func (m *Manager) ConfigPath() string {
	return filepath.Join(m.RootPath(), ConfigFile)
}

// ArchivePath returns the path to the archive directory.
func (m *Manager) ArchivePath() string {
	return filepath.Join(m.RootPath(), ArchiveDir)
}

// typeDir maps an artifact type to its directory name.
// Patterns live under playbook/ to match how the methodology names it.
func typeDir(t artifact.Type) string {
	if t == artifact.TypePattern {
		return PlaybookDir
	}
	return t.String()
}

// TypePath returns the directory holding artifacts of the given type.
func (m *Manager) TypePath(t artifact.Type) string {
	return filepath.Join(m.RootPath(), typeDir(t))
}

// DocPath returns the path to the document for a type and slug.
func (m *Manager) DocPath(t artifact.Type, slug string) string {
	return filepath.Join(m.TypePath(t), slug+DocExt)
}

// WatchPaths returns the directories a filesystem watcher should cover.
func (m *Manager) WatchPaths() []string {
	paths := make([]string, 0, len(artifact.AllTypes))
	for _, t := range artifact.AllTypes {
		paths = append(paths, m.TypePath(t))
	}
	return paths
}

// Initialized reports whether the .airsdlc tree exists.
func (m *Manager) Initialized() bool {
	info, err := os.Stat(m.RootPath())
	return err == nil && info.IsDir()
}

// Init creates the .airsdlc directory structure if it doesn't exist.
func (m *Manager) Init() error {
	dirs := []string{m.RootPath(), m.ArchivePath()}
	for _, t := range artifact.AllTypes {
		dirs = append(dirs, m.TypePath(t))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
