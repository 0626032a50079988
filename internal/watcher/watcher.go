// Package watcher reports debounced changes to a plan directory.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces bursts of events, such as a save rewriting every
// task file, into one callback.
const debounceDelay = 100 * time.Millisecond

// Watcher calls back once per burst of relevant changes in its directories.
type Watcher struct {
	fsw      *fsnotify.Watcher
	delay    time.Duration
	callback func()
}

// New watches paths. Every path must exist.
func New(paths []string, callback func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", p, err)
		}
	}
	return &Watcher{fsw: fsw, delay: debounceDelay, callback: callback}, nil
}

// Run delivers callbacks until ctx is canceled or the watcher is closed.
// The callback runs on Run's goroutine, delay after the last relevant event.
// Watch errors go to errFn when it is non-nil.
func (w *Watcher) Run(ctx context.Context, errFn func(error)) {
	quiet := time.NewTimer(w.delay)
	quiet.Stop()
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if Relevant(event) {
				quiet.Reset(w.delay)
			}
		case <-quiet.C:
			w.callback()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if errFn != nil {
				errFn(err)
			}
		}
	}
}

// Close stops watching. A running Run returns.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Relevant reports whether event touches plan state: a task file or the
// plan config. Temp files, the lock file and the activity log are ignored.
func Relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch filepath.Ext(name) {
	case ".md", ".yml", ".yaml":
		return true
	}
	return false
}
