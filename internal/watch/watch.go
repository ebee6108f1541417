// Package watch reports changes under the serving root.
//
// It only logs; responses are always read from disk, so nothing here is
// needed for correctness.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// DefaultDebounce is how long a burst of events is collected before it is
// reported as one change.
const DefaultDebounce = 150 * time.Millisecond

// Watcher follows a directory tree with fsnotify.
type Watcher struct {
	root     string
	log      *clog.Logger
	fw       *fsnotify.Watcher
	debounce time.Duration
	onChange func(paths []string)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// OnChange registers fn to receive each coalesced batch of changed paths.
func OnChange(fn func(paths []string)) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// New starts watching root and all directories below it.
func New(root string, logger *clog.Logger, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}
	w := &Watcher{root: root, log: logger, fw: fw, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	if err := fw.Add(root); err != nil {
		_ = fw.Close()
		return nil, errors.Wrapf(err, "watch %s", root)
	}
	w.addTree(root)
	return w, nil
}

// addTree adds every directory below dir; unreadable ones are skipped.
func (w *Watcher) addTree(dir string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && p != w.root {
			if err := w.fw.Add(p); err != nil {
				w.log.Debug("watch add failed", "dir", p, "err", err)
			}
		}
		return nil
	})
}

// Run delivers events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()
	pending := map[string]struct{}{}
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			pending[ev.Name] = struct{}{}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					w.addTree(ev.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-fire:
			timer, fire = nil, nil
			w.flush(pending)
			clear(pending)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) flush(pending map[string]struct{}) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		if rel, err := filepath.Rel(w.root, p); err == nil {
			p = filepath.ToSlash(rel)
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	w.log.Info("root changed", "paths", len(paths), "first", paths[0])
	if w.onChange != nil {
		w.onChange(paths)
	}
}
