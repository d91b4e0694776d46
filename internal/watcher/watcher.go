// Package watcher wraps fsnotify with a debouncer, per SPEC_FULL.md §4.1.
// It is grounded on the teacher's internal/adapters/filesystem.FileWatcher
// (recursive fsnotify.Add, an ignore-dir set, a single debounce timer
// draining into a bounded channel), generalized to: a configurable
// debounce window (the teacher hardcoded 100ms; the spec default is
// 250ms), rename modeling (delete-then-create, which the teacher never
// produced), and same-window create+delete annihilation.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/norgolith/norgolith/internal/errs"
	"github.com/norgolith/norgolith/internal/log"
)

// Kind is the collapsed kind of a single path's change within a batch.
type Kind int

const (
	KindCreate Kind = iota
	KindModify
	KindDelete
	KindRename
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindModify:
		return "modify"
	case KindDelete:
		return "delete"
	case KindRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is a single path's collapsed change.
type Event struct {
	Path string
	Kind Kind
}

// Batch is a set of coalesced events closed by one quiescence window.
// Within a batch no path appears more than once.
type Batch struct {
	Events []Event
}

// DefaultDebounce is the default quiescence window (SPEC_FULL.md §4.1).
const DefaultDebounce = 250 * time.Millisecond

// defaultIgnored directories are never watched or reported.
var defaultIgnored = map[string]bool{
	".git":       true,
	".lith":      true,
	"node_modules": true,
}

// Watcher streams debounced change batches for a project root.
type Watcher struct {
	root      string
	debounce  time.Duration
	ignoreDir func(rel string) bool
	logger    log.Logger

	fsw    *fsnotify.Watcher
	errCnt int
	mu     sync.Mutex
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the default quiescence window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithIgnoreDir adds a predicate for directories (given as a root-relative,
// slash-separated path) that should never be watched, in addition to the
// built-in ignore set (.git, .lith, node_modules). Commonly used to
// exclude the build output directory.
func WithIgnoreDir(f func(rel string) bool) Option {
	return func(w *Watcher) {
		prev := w.ignoreDir
		w.ignoreDir = func(rel string) bool {
			return prev(rel) || f(rel)
		}
	}
}

// WithLogger attaches a logger; WatcherErrors are logged through it.
func WithLogger(l log.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New creates a Watcher rooted at root.
func New(root string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &errs.WatcherError{Err: err}
	}

	w := &Watcher{
		root:     root,
		debounce: DefaultDebounce,
		ignoreDir: func(rel string) bool {
			for _, part := range strings.Split(rel, "/") {
				if defaultIgnored[part] {
					return true
				}
			}
			return false
		},
		logger: log.Nop(),
		fsw:    fsw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run starts watching and streams batches on the returned channel until
// ctx is canceled or the root disappears (a fatal WatcherError, returned
// via the error channel, after which both channels are closed).
func (w *Watcher) Run(ctx context.Context) (<-chan Batch, <-chan error) {
	batches := make(chan Batch, 16)
	fatal := make(chan error, 1)

	go func() {
		defer close(batches)
		defer close(fatal)
		defer w.fsw.Close()

		if err := w.addRecursive(w.root); err != nil {
			fatal <- err
			return
		}

		pending := map[string]Event{}
		timer := time.NewTimer(w.debounce)
		if !timer.Stop() {
			<-timer.C
		}
		timerActive := false
		var errTimes []time.Time

		flush := func() {
			if len(pending) == 0 {
				return
			}
			batch := Batch{Events: make([]Event, 0, len(pending))}
			for _, e := range pending {
				batch.Events = append(batch.Events, e)
			}
			pending = map[string]Event{}

			select {
			case batches <- batch:
			default:
				// Channel full: the build task is still draining a
				// previous batch. Re-merge into pending instead of
				// blocking the watch task, per SPEC_FULL.md §5.
				for _, e := range batch.Events {
					pending[e.Path] = e
				}
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					if _, statErr := os.Stat(w.root); statErr != nil {
						fatal <- &errs.WatcherError{Err: statErr}
						return
					}
				}
				w.handleFSEvent(ev, pending)
				if !timerActive {
					timer.Reset(w.debounce)
					timerActive = true
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(w.debounce)
				}

			case <-timer.C:
				timerActive = false
				flush()

			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				w.recordError(err)
				now := time.Now()
				errTimes = append(errTimes, now)
				for len(errTimes) > 0 && now.Sub(errTimes[0]) > 60*time.Second {
					errTimes = errTimes[1:]
				}
				if len(errTimes) >= 3 {
					fatal <- &errs.WatcherError{Err: err}
					return
				}
			}
		}
	}()

	return batches, fatal
}

func (w *Watcher) recordError(err error) {
	w.mu.Lock()
	w.errCnt++
	w.logger.Warn("watcher error", "error", err.Error(), "count", w.errCnt)
	w.mu.Unlock()
}

// handleFSEvent folds a single fsnotify event into the pending map,
// collapsing per the contract in SPEC_FULL.md §4.1: modify+modify collapse
// to one modify; create+modify stays a create; create+delete within one
// window annihilate.
func (w *Watcher) handleFSEvent(ev fsnotify.Event, pending map[string]Event) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
		if ev.Op&fsnotify.Create == fsnotify.Create && !w.ignoreDir(rel) {
			_ = w.fsw.Add(ev.Name)
		}
		return
	}

	if w.ignoreDir(filepath.ToSlash(filepath.Dir(rel))) {
		return
	}

	kind := mapOp(ev.Op)

	existing, had := pending[rel]
	switch {
	case had && existing.Kind == KindCreate && kind == KindDelete:
		delete(pending, rel)
	case had && existing.Kind == KindDelete && kind == KindCreate:
		pending[rel] = Event{Path: rel, Kind: KindModify}
	case had && existing.Kind == KindCreate && kind == KindModify:
		// A file created and then written within one window is still new.
	default:
		pending[rel] = Event{Path: rel, Kind: kind}
	}
}

func mapOp(op fsnotify.Op) Kind {
	switch {
	case op&fsnotify.Create == fsnotify.Create:
		return KindCreate
	case op&fsnotify.Remove == fsnotify.Remove:
		return KindDelete
	case op&fsnotify.Rename == fsnotify.Rename:
		return KindDelete
	case op&fsnotify.Write == fsnotify.Write:
		return KindModify
	default:
		return KindModify
	}
}

func (w *Watcher) addRecursive(root string) error {
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if rel != "." && w.ignoreDir(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			w.recordError(addErr)
		}
		return nil
	})
	if err != nil {
		return &errs.WatcherError{Err: err}
	}
	return nil
}
