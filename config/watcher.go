package config

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle drops repeated events for the same file within this window; an
// editor save usually produces several.
const settle = 100 * time.Millisecond

// Watcher reports changes to the shader files of one directory.
type Watcher struct {
	watch   *fsnotify.Watcher
	names   map[string]bool
	changes chan string
	done    chan struct{}
}

// NewWatcher watches dir for writes, creations and renames of the named
// files. With no names every file counts.
func NewWatcher(dir string, names ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w := &Watcher{
		watch:   fw,
		names:   make(map[string]bool, len(names)),
		changes: make(chan string, 16),
		done:    make(chan struct{}),
	}
	for _, n := range names {
		w.names[n] = true
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	last := map[string]time.Time{}
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watch.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			base := filepath.Base(event.Name)
			if len(w.names) > 0 && !w.names[base] {
				continue
			}
			now := time.Now()
			if now.Sub(last[base]) < settle {
				continue
			}
			last[base] = now
			select {
			case w.changes <- event.Name:
			default:
			}
		case err, ok := <-w.watch.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: shader watcher: %v", err)
		}
	}
}

// Changes delivers the path of every changed file.
func (w *Watcher) Changes() <-chan string { return w.changes }

// Drain empties the pending changes without blocking and reports whether
// there were any. It is meant for a frame loop.
func (w *Watcher) Drain() bool {
	changed := false
	for {
		select {
		case <-w.changes:
			changed = true
		default:
			return changed
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watch.Close()
}
