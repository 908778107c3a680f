package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher serves a discount table loaded from a JSON file and swaps in a new
// table whenever the file changes. A file that fails to parse leaves the
// previous table in place.
type Watcher struct {
	path     string
	logger   *slog.Logger
	current  atomic.Pointer[Table]
	debounce time.Duration
}

// NewWatcher loads path once. It fails when the initial load fails.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	t, err := LoadTableFile(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{path: path, logger: logger, debounce: 100 * time.Millisecond}
	w.current.Store(t)
	return w, nil
}

// Table implements TableSource.
func (w *Watcher) Table() *Table {
	return w.current.Load()
}

// Reload re-reads the file and swaps the table on success.
func (w *Watcher) Reload() error {
	t, err := LoadTableFile(w.path)
	if err != nil {
		return err
	}
	w.current.Store(t)
	w.logger.Info("discount table reloaded", slog.String("path", w.path), slog.Int("codes", t.Len()))
	return nil
}

// Run watches the file's directory until ctx is cancelled. Editors often
// replace files by rename, so the directory is watched rather than the file.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", w.path, err)
	}

	target := filepath.Clean(w.path)
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				pending = time.After(w.debounce)
			}
		case <-pending:
			pending = nil
			if err := w.Reload(); err != nil {
				w.logger.Warn("discount table reload failed, keeping previous table",
					slog.String("path", w.path),
					slog.String("error", err.Error()),
				)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("discount table watcher error", slog.String("error", err.Error()))
		}
	}
}
