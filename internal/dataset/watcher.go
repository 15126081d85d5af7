package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherStarted is returned by Start on a watcher that was already
// started or stopped.
var ErrWatcherStarted = errors.New("dataset: watcher already started or stopped")

// DefaultDebounce is the quiet period Watcher waits for after the last
// write before reporting a change.
const DefaultDebounce = 100 * time.Millisecond

// Change reports that the watched dataset was written, created or removed.
type Change struct {
	File    string
	Removed bool
}

// Watcher watches a single dataset file. It watches the parent directory so
// that editors replacing the file by rename are still seen.
type Watcher struct {
	File     string
	Debounce time.Duration
	Changes  <-chan Change

	changes chan Change
	stop    chan struct{}
	done    chan struct{}
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewWatcher creates a watcher for the dataset at path.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("dataset: create watcher: %w", err)
	}

	ch := make(chan Change, 16)
	return &Watcher{
		File:     abs,
		Debounce: DefaultDebounce,
		Changes:  ch,
		changes:  ch,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		watcher:  fw,
	}, nil
}

// Start begins watching. A watcher can be started once.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return ErrWatcherStarted
	}
	if err := w.watcher.Add(filepath.Dir(w.File)); err != nil {
		return fmt.Errorf("dataset: watch %s: %w", w.File, err)
	}
	w.started = true
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel. It is safe to call
// whether or not Start succeeded, and more than once. Changes not yet
// received are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.stopped = true
	close(w.stop)
	w.watcher.Close()
	if w.started {
		<-w.done
	}
	close(w.changes)
}

// send delivers c unless the watcher is stopping.
func (w *Watcher) send(c Change) bool {
	select {
	case w.changes <- c:
		return true
	case <-w.stop:
		return false
	}
}

func (w *Watcher) loop() {
	defer close(w.done)

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	var (
		pending bool
		removed bool
		last    time.Time
	)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				if pending {
					w.send(Change{File: w.File, Removed: removed})
				}
				return
			}
			if filepath.Clean(event.Name) != w.File {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				pending, removed, last = true, false, time.Now()
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				pending, removed, last = true, true, time.Now()
			}

		case <-ticker.C:
			if pending && time.Since(last) >= debounce {
				if !w.send(Change{File: w.File, Removed: removed}) {
					return
				}
				pending = false
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal.
		}
	}
}
