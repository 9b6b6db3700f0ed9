package config

import (
	"os"
	"sync"
	"time"
)

// Watcher monitors files for changes by polling mtime at a fixed interval.
// Paths that do not exist yet are tolerated; their creation counts as a
// change.
type Watcher struct {
	paths    []string
	onChange func()
	interval time.Duration
	mtimes   map[string]time.Time
	stopCh   chan struct{}
	mu       sync.Mutex
	running  bool
	stopOnce sync.Once
}

// NewWatcher creates a watcher that calls onChange whenever any of the
// monitored files changes, appears, or disappears.
func NewWatcher(paths []string, onChange func()) *Watcher {
	return &Watcher{
		paths:    paths,
		onChange: onChange,
		interval: 2 * time.Second,
		mtimes:   make(map[string]time.Time),
		stopCh:   make(chan struct{}),
	}
}

// SetInterval overrides the default 2s polling interval. Must be called
// before Start.
func (w *Watcher) SetInterval(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.interval = d
}

// Start begins polling in a goroutine. Subsequent calls are no-ops.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.snapshotLocked()
	w.mu.Unlock()

	go w.loop()
}

// Stop halts the polling goroutine. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.stopCh)
	})
}

func (w *Watcher) loop() {
	w.mu.Lock()
	interval := w.interval
	w.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.mu.Lock()
			changed := w.checkLocked()
			if changed {
				w.snapshotLocked()
			}
			w.mu.Unlock()

			if changed {
				w.onChange()
			}
		}
	}
}

// checkLocked compares current mtimes with the stored snapshot. Must hold mu.
func (w *Watcher) checkLocked() bool {
	for _, path := range w.paths {
		info, err := os.Stat(path)
		if err != nil {
			if _, existed := w.mtimes[path]; existed {
				return true
			}
			continue
		}
		prev, ok := w.mtimes[path]
		if !ok || !info.ModTime().Equal(prev) {
			return true
		}
	}
	return false
}

// snapshotLocked records current mtimes. Must hold mu.
func (w *Watcher) snapshotLocked() {
	for _, path := range w.paths {
		info, err := os.Stat(path)
		if err != nil {
			delete(w.mtimes, path)
			continue
		}
		w.mtimes[path] = info.ModTime()
	}
}
