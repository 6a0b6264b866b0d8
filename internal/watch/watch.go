// Package watch re-runs a callback whenever solver logs appear or change in
// a set of group directories.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/signalnine/gapbench/internal/result"
)

const DefaultDebounce = 2 * time.Second

// Handler receives the log paths changed since the previous call, sorted.
type Handler func(ctx context.Context, changed []string) error

type Options struct {
	// Debounce is the quiet period after the last event before the handler
	// runs. Solvers write logs in bursts.
	Debounce time.Duration
	Logger   *slog.Logger
}

type Watcher struct {
	fsw      *fsnotify.Watcher
	dirs     []string
	debounce time.Duration
	log      *slog.Logger
}

// New watches dirs. Directories that do not exist yet are skipped with a
// warning.
func New(dirs []string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{fsw: fsw, debounce: opts.Debounce, log: opts.Logger}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.log == nil {
		w.log = slog.Default()
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			w.log.Warn("not watching dir", "dir", d, "err", err)
			continue
		}
		w.dirs = append(w.dirs, d)
	}
	if len(w.dirs) == 0 {
		fsw.Close()
		return nil, fmt.Errorf("none of the %d dirs can be watched", len(dirs))
	}
	return w, nil
}

// Dirs returns the directories actually being watched.
func (w *Watcher) Dirs() []string {
	return append([]string(nil), w.dirs...)
}

// Run blocks until ctx is done, calling fn once per burst of log changes.
// Handler errors are logged and do not stop the loop. Run closes the
// watcher before returning.
func (w *Watcher) Run(ctx context.Context, fn Handler) error {
	defer w.fsw.Close()

	pending := map[string]bool{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			pending[ev.Name] = true
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "err", err)
		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			w.log.Debug("logs changed", "count", len(changed))
			if err := fn(ctx, changed); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.log.Error("handler failed", "err", err)
			}
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(ev.Name)
	return !strings.HasPrefix(base, ".") && strings.HasSuffix(base, result.OutputExt)
}
