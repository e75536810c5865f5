// Package watch observes the artifact tree for filesystem changes and
// emits debounced, content-aware change events. A burst of writes to
// one document collapses into a single event, and saves that do not
// change the content are suppressed.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/airsdlc/airtrack/store"
)

// Operation indicates the type of change to a document.
type Operation string

const (
	OpCreate Operation = "create"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

// Event is one debounced change to a document in the tree.
type Event struct {
	// Path is relative to the tree root.
	Path string

	Operation Operation
}

// Config configures a Watcher.
type Config struct {
	// DebounceDelay is how long to wait for more changes before
	// flushing. Defaults to 100ms.
	DebounceDelay time.Duration

	// Logger for watch activity.
	Logger *slog.Logger
}

// Watcher watches the artifact directories for document changes.
type Watcher struct {
	manager  *store.Manager
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	// Debouncing: collect changes before flushing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // absolute path → most recent op

	// Content hashes for change suppression
	hashMu sync.RWMutex
	hashes map[string]string // relative path → content hash

	events chan Event
}

// NewWatcher creates a watcher over the manager's artifact directories.
func NewWatcher(manager *store.Manager, config Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	debounce := config.DebounceDelay
	if debounce == 0 {
		debounce = 100 * time.Millisecond
	}

	return &Watcher{
		manager:  manager,
		watcher:  fsw,
		logger:   logger,
		debounce: debounce,
		pending:  make(map[string]fsnotify.Op),
		hashes:   make(map[string]string),
		events:   make(chan Event, 100),
	}, nil
}

// Events returns the channel of debounced change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start indexes the current tree and begins watching for changes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.indexTree(); err != nil {
		return err
	}

	for _, dir := range w.manager.WatchPaths() {
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", dir,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", dir)
		}
	}

	go w.run(ctx)

	w.logger.Info("Tree watcher started",
		"root", w.manager.RootPath(),
		"debounce", w.debounce)

	return nil
}

// Stop stops the watcher and closes the event channel.
func (w *Watcher) Stop() error {
	close(w.events)
	return w.watcher.Close()
}

// indexTree records content hashes for all existing documents so that
// the first save after startup is reported as a modify, not a create.
func (w *Watcher) indexTree() error {
	root := w.manager.RootPath()
	for _, dir := range w.manager.WatchPaths() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), store.DocExt) {
				continue
			}
			full := filepath.Join(dir, entry.Name())
			data, err := os.ReadFile(full)
			if err != nil {
				continue
			}
			rel, _ := filepath.Rel(root, full)
			w.setHash(rel, hashContent(data))
		}
	}
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent accumulates a raw fsnotify event for the next flush.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, store.DocExt) {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Document change detected",
		"path", event.Name,
		"op", event.Op.String())
}

// flushPending turns accumulated raw events into debounced Events.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	root := w.manager.RootPath()

	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			w.dropHash(rel)
			w.sendEvent(Event{Path: rel, Operation: OpDelete})
			continue
		}

		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			w.dropHash(rel)
			w.sendEvent(Event{Path: rel, Operation: OpDelete})
			continue
		}
		if err != nil {
			w.logger.Warn("Failed to read changed document",
				"path", rel,
				"error", err)
			continue
		}

		hash := hashContent(data)
		oldHash, hadHash := w.getHash(rel)
		if hadHash && oldHash == hash {
			// Touched but unchanged, skip.
			continue
		}
		w.setHash(rel, hash)

		operation := OpModify
		if !hadHash {
			operation = OpCreate
		}
		w.sendEvent(Event{Path: rel, Operation: operation})
	}
}

func (w *Watcher) sendEvent(event Event) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event",
			"path", event.Path,
			"op", event.Operation)
	default:
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path)
	}
}

func (w *Watcher) setHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

func (w *Watcher) getHash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[path]
	return hash, ok
}

func (w *Watcher) dropHash(path string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	delete(w.hashes, path)
}

func hashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
