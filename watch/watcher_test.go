package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"

	"github.com/airsdlc/airtrack/store"
)

func testWatcher(t *testing.T) (*Watcher, *store.Manager) {
	t.Helper()

	m := store.NewManager(t.TempDir())
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	w, err := NewWatcher(m, Config{})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	t.Cleanup(func() { w.watcher.Close() })

	return w, m
}

func writeDoc(t *testing.T, m *store.Manager, rel, content string) string {
	t.Helper()
	full := filepath.Join(m.RootPath(), rel)
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return full
}

func drainOne(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.events:
		return ev
	default:
		t.Fatal("expected an event, channel empty")
		return Event{}
	}
}

func TestIgnoresNonDocuments(t *testing.T) {
	w, _ := testWatcher(t)

	w.handleFSEvent(fsnotify.Event{Name: "/tmp/notes.txt", Op: fsnotify.Write})
	w.handleFSEvent(fsnotify.Event{Name: "/tmp/.swap", Op: fsnotify.Create})

	if len(w.pending) != 0 {
		t.Errorf("pending = %d entries, want 0", len(w.pending))
	}
}

func TestDebounceCollapsesBurst(t *testing.T) {
	w, m := testWatcher(t)

	full := writeDoc(t, m, "prd/checkout.md", "first draft")

	// A burst of writes to one file accumulates as one pending entry.
	w.handleFSEvent(fsnotify.Event{Name: full, Op: fsnotify.Create})
	w.handleFSEvent(fsnotify.Event{Name: full, Op: fsnotify.Write})
	w.handleFSEvent(fsnotify.Event{Name: full, Op: fsnotify.Write})

	w.flushPending(context.Background())

	ev := drainOne(t, w)
	if ev.Path != filepath.Join("prd", "checkout.md") {
		t.Errorf("Path = %q", ev.Path)
	}
	if ev.Operation != OpCreate {
		t.Errorf("Operation = %q, want %q", ev.Operation, OpCreate)
	}

	select {
	case extra := <-w.events:
		t.Errorf("unexpected second event: %+v", extra)
	default:
	}
}

func TestUnchangedContentSuppressed(t *testing.T) {
	w, m := testWatcher(t)

	full := writeDoc(t, m, "prd/checkout.md", "stable content")
	if err := w.indexTree(); err != nil {
		t.Fatalf("indexTree: %v", err)
	}

	// A touch that leaves the bytes identical produces no event.
	w.handleFSEvent(fsnotify.Event{Name: full, Op: fsnotify.Write})
	w.flushPending(context.Background())

	select {
	case ev := <-w.events:
		t.Errorf("unexpected event for unchanged content: %+v", ev)
	default:
	}

	// An actual edit does.
	writeDoc(t, m, "prd/checkout.md", "revised content")
	w.handleFSEvent(fsnotify.Event{Name: full, Op: fsnotify.Write})
	w.flushPending(context.Background())

	ev := drainOne(t, w)
	if ev.Operation != OpModify {
		t.Errorf("Operation = %q, want %q", ev.Operation, OpModify)
	}
}

func TestDeleteEmitsAndDropsHash(t *testing.T) {
	w, m := testWatcher(t)

	full := writeDoc(t, m, "adr/event-bus.md", "decision")
	if err := w.indexTree(); err != nil {
		t.Fatalf("indexTree: %v", err)
	}

	if err := os.Remove(full); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	w.handleFSEvent(fsnotify.Event{Name: full, Op: fsnotify.Remove})
	w.flushPending(context.Background())

	ev := drainOne(t, w)
	if ev.Operation != OpDelete {
		t.Errorf("Operation = %q, want %q", ev.Operation, OpDelete)
	}

	rel := filepath.Join("adr", "event-bus.md")
	if _, ok := w.getHash(rel); ok {
		t.Error("hash survived deletion")
	}
}
