// Package watch reports batches of file changes under a set of paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/langpack/langpack/internal/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// DefaultDebounce is how long the watched paths must stay quiet before a batch is reported.
const DefaultDebounce = 300 * time.Millisecond

// Watcher monitors files and directory trees.
type Watcher struct {
	debounce time.Duration
	filter   func(path string) bool
	fw       *fsnotify.Watcher
}

// New starts watching paths. Directories are watched recursively, hidden ones excepted, and
// missing paths are ignored. Only the files accepted by filter are reported; nil accepts all.
func New(ctx context.Context, paths []string, filter func(path string) bool, debounce time.Duration) (w *Watcher, err error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create watcher: %v", err)
	}
	defer func() {
		if err != nil {
			fw.Close()
		}
	}()

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if filter == nil {
		filter = func(string) bool { return true }
	}
	w = &Watcher{debounce: debounce, filter: filter, fw: fw}

	for _, p := range paths {
		if err := w.add(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Debugf(ctx, "Not watching missing path %s", p)
				continue
			}
			return nil, err
		}
	}
	return w, nil
}

// add watches p, and its subdirectories when it is a directory.
func (w *Watcher) add(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.fw.Add(p)
	}

	return filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != p && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fw.Add(path); err != nil {
			return fmt.Errorf("could not watch %s: %v", path, err)
		}
		return nil
	})
}

// Run calls fn with the sorted list of files changed since the previous call, once no change
// happened for the debounce delay. It returns when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context, changed []string)) error {
	defer w.fw.Close()

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fw.Events:
			if !ok {
				return errors.New("watcher closed")
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.add(event.Name); err != nil {
						log.Warningf(ctx, "Could not watch new directory: %v", err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.filter(event.Name) {
				continue
			}

			log.Debugf(ctx, "Change detected: %s", event)
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := maps.Keys(pending)
			slices.Sort(changed)
			pending = make(map[string]bool)
			fn(ctx, changed)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			log.Warningf(ctx, "Watch error: %v", err)
		}
	}
}
