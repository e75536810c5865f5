package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/airsdlc/airtrack/artifact"
)

func TestMalformedReportsUnparseableDocs(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	if _, err := m.Create(ctx, artifact.TypePRD, "Checkout revamp", "sam", nil); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	broken := filepath.Join(m.TypePath(artifact.TypePRD), "broken.md")
	if err := os.WriteFile(broken, []byte("---\nid: [not\n---\n# Broken\n"), 0o644); err != nil {
		t.Fatalf("write broken doc: %v", err)
	}

	// List stays lenient so one bad file cannot take everything down.
	artifacts, err := m.ListByType(ctx, artifact.TypePRD)
	if err != nil {
		t.Fatalf("ListByType() error = %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("ListByType() len = %d, want 1", len(artifacts))
	}

	malformed, err := m.Malformed(ctx)
	if err != nil {
		t.Fatalf("Malformed() error = %v", err)
	}
	if len(malformed) != 1 {
		t.Fatalf("Malformed() len = %d, want 1", len(malformed))
	}
	if want := filepath.Join("prd", "broken.md"); malformed[0].Path != want {
		t.Errorf("Malformed()[0].Path = %q, want %q", malformed[0].Path, want)
	}
	if malformed[0].Err == nil {
		t.Error("Malformed()[0].Err = nil, want parse error")
	}
}

func TestMalformedEmptyTree(t *testing.T) {
	m := testManager(t)

	malformed, err := m.Malformed(context.Background())
	if err != nil {
		t.Fatalf("Malformed() error = %v", err)
	}
	if len(malformed) != 0 {
		t.Errorf("Malformed() = %v, want none", malformed)
	}
}

func TestMalformedIgnoresNonDocFiles(t *testing.T) {
	m := testManager(t)

	readme := filepath.Join(m.TypePath(artifact.TypeADR), "notes.txt")
	if err := os.WriteFile(readme, []byte("scratch"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	malformed, err := m.Malformed(context.Background())
	if err != nil {
		t.Fatalf("Malformed() error = %v", err)
	}
	for _, doc := range malformed {
		if strings.HasSuffix(doc.Path, "notes.txt") {
			t.Errorf("Malformed() flagged non-document %s", doc.Path)
		}
	}
}
