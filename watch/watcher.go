// Package watch resolves bundle paths and watches them for changes so the
// CLI can re-synthesize a story whenever one of its inputs is rewritten.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const (
	// eventChannelBuffer is the size of the watch event channel.
	eventChannelBuffer = 100

	// DefaultDebounceDelay is used when Config.DebounceDelay is zero.
	DefaultDebounceDelay = 500 * time.Millisecond
)

// Config configures bundle watching.
type Config struct {
	// Patterns are bundle paths or doublestar globs, relative or absolute.
	Patterns []string

	// DebounceDelay is how long to wait for more changes before emitting.
	DebounceDelay time.Duration
}

// Operation indicates the type of bundle change.
type Operation string

// OpChange and OpRemove enumerate the bundle change types.
const (
	OpChange Operation = "change"
	OpRemove Operation = "remove"
)

// Event is a debounced bundle change.
type Event struct {
	// Path is the absolute bundle path.
	Path      string
	Operation Operation
}

// BundleWatcher watches the directories under its patterns and emits one
// event per changed bundle per debounce interval. Writes that leave a file's
// content unchanged are not reported.
type BundleWatcher struct {
	patterns []string
	delay    time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.Mutex
	hashes map[string]string

	events chan Event

	droppedEvents atomic.Int64
}

// New creates a BundleWatcher. Patterns are made absolute and validated.
func New(cfg Config, logger *slog.Logger) (*BundleWatcher, error) {
	if len(cfg.Patterns) == 0 {
		return nil, errors.New("at least one pattern is required")
	}
	if cfg.DebounceDelay < 0 {
		return nil, fmt.Errorf("debounce delay must not be negative, got %s", cfg.DebounceDelay)
	}

	patterns := make([]string, 0, len(cfg.Patterns))
	for _, p := range cfg.Patterns {
		abs, err := AbsolutePattern(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		if !doublestar.ValidatePathPattern(abs) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
		patterns = append(patterns, abs)
	}

	delay := cfg.DebounceDelay
	if delay == 0 {
		delay = DefaultDebounceDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &BundleWatcher{
		patterns: patterns,
		delay:    delay,
		watcher:  fsw,
		logger:   logger,
		pending:  make(map[string]fsnotify.Op),
		hashes:   make(map[string]string),
		events:   make(chan Event, eventChannelBuffer),
	}, nil
}

// Events returns the channel of bundle events. It is closed when the
// watcher stops.
func (w *BundleWatcher) Events() <-chan Event {
	return w.events
}

// Start records the current content of every matching bundle and begins
// watching for changes.
func (w *BundleWatcher) Start(ctx context.Context) error {
	for _, pattern := range w.patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
		if err := w.addWatchesRecursive(filepath.FromSlash(base)); err != nil {
			return err
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return fmt.Errorf("glob error: %w", err)
		}
		for _, m := range matches {
			if content, err := os.ReadFile(m); err == nil {
				w.setHash(m, contentHash(content))
			}
		}
	}

	go w.processEvents(ctx)

	w.logger.Info("Bundle watcher started",
		"patterns", w.patterns,
		"debounce", w.delay)

	return nil
}

// Stop stops the watcher.
// The events channel is closed by processEvents when it exits.
func (w *BundleWatcher) Stop() error {
	return w.watcher.Close()
}

// Matches reports whether path matches one of the watcher's patterns.
func (w *BundleWatcher) Matches(path string) bool {
	path = filepath.Clean(path)
	for _, pattern := range w.patterns {
		if ok, _ := doublestar.PathMatch(pattern, path); ok {
			return true
		}
	}
	return false
}

// DroppedEvents returns the number of events dropped due to channel overflow.
func (w *BundleWatcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}

func (w *BundleWatcher) addWatchesRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	if !info.IsDir() {
		root = filepath.Dir(root)
	}

	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if path != root && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

func (w *BundleWatcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.delay)
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

func (w *BundleWatcher) handleFSEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if !w.Matches(path) {
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() && !strings.HasPrefix(filepath.Base(path), ".") {
				if err := w.watcher.Add(path); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
				}
			}
		}
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Bundle change detected",
		"path", path,
		"op", event.Op.String())
}

func (w *BundleWatcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		content, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			if w.forgetHash(path) {
				w.sendEvent(Event{Path: path, Operation: OpRemove})
			}
			continue
		}
		if err != nil {
			w.logger.Warn("Failed to read bundle", "path", path, "error", err)
			continue
		}

		hash := contentHash(content)
		if old, ok := w.getHash(path); ok && old == hash {
			continue
		}
		w.setHash(path, hash)
		w.sendEvent(Event{Path: path, Operation: OpChange})
	}
}

func (w *BundleWatcher) sendEvent(event Event) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent bundle event",
			"path", event.Path,
			"op", event.Operation)
	default:
		dropped := w.droppedEvents.Add(1)
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path,
			"total_dropped", dropped)
	}
}

func (w *BundleWatcher) setHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

func (w *BundleWatcher) getHash(path string) (string, bool) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	hash, ok := w.hashes[path]
	return hash, ok
}

func (w *BundleWatcher) forgetHash(path string) bool {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	_, ok := w.hashes[path]
	delete(w.hashes, path)
	return ok
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
