// Package watch re-runs work when exam input files change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 300 * time.Millisecond

var (
	ErrNoPaths = errors.New("no files to watch")
	ErrRemoved = errors.New("watched file was removed")
)

type Option func(*Watcher)

// WithDebounce sets how long the watcher waits for writes to settle before
// reporting a change. Zero or negative keeps DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// Watcher observes a fixed set of files. It watches their parent directories
// so editors that save by rename are still seen.
type Watcher struct {
	targets  map[string]bool
	debounce time.Duration
	onError  func(error)

	fsw       *fsnotify.Watcher
	closeOnce sync.Once
	closeErr  error
}

// New starts observing paths. Events that arrive before Run are buffered by
// the underlying notifier.
func New(paths []string, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		targets:  map[string]bool{},
		debounce: DefaultDebounce,
		onError:  func(error) {},
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := map[string]bool{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		w.targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	if len(w.targets) == 0 {
		return nil, ErrNoPaths
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	sorted := make([]string, 0, len(dirs))
	for d := range dirs {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)
	for _, d := range sorted {
		if err := fsw.Add(d); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", d, err)
		}
	}
	w.fsw = fsw
	return w, nil
}

// Paths returns the absolute paths being watched, sorted.
func (w *Watcher) Paths() []string {
	out := make([]string, 0, len(w.targets))
	for p := range w.targets {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Run calls onChange once per burst of changes to the watched files until ctx
// is done. onChange runs on the Run goroutine, so a slow callback delays the
// next notification instead of overlapping with it. Run closes the watcher
// when it returns.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer w.Close()

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

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.targets[filepath.Clean(event.Name)] {
				continue
			}
			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					timer.Reset(w.debounce)
				}
				fire = timer.C
			case event.Op&fsnotify.Remove != 0:
				w.onError(fmt.Errorf("%w: %s", ErrRemoved, event.Name))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.onError(err)

		case <-fire:
			fire = nil
			onChange()
		}
	}
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.fsw.Close()
	})
	return w.closeErr
}
