// ABOUTME: File watcher that hot-reloads the knowledge base when its backing file changes.
// ABOUTME: Debounces rapid write events before triggering a single reload.

package kb

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// WatcherConfig holds configuration for the knowledge-base watcher.
type WatcherConfig struct {
	// DebounceInterval is the quiet period required after the last write
	// event before a reload is triggered.
	DebounceInterval time.Duration
}

// DefaultWatcherConfig returns a WatcherConfig with sensible defaults.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		DebounceInterval: 500 * time.Millisecond,
	}
}

// Watcher monitors the knowledge-base file and reloads the store on change.
type Watcher struct {
	config  WatcherConfig
	watcher *fsnotify.Watcher
	store   *Store
	logger  *logrus.Logger

	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher for the given store's backing file.
func NewWatcher(store *Store, config WatcherConfig, logger *logrus.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		config:  config,
		watcher: fsWatcher,
		store:   store,
		logger:  logger,
	}, nil
}

// Start begins watching the knowledge-base file's directory. Watching the
// directory rather than the file survives atomic rename-based rewrites.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dir := filepath.Dir(w.store.Path())
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.watchLoop(ctx)
	return nil
}

// Close stops the watcher and releases its file handles.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	var debounce *time.Timer
	target := filepath.Clean(w.store.Path())

	reload := func() {
		if err := w.store.Reload(); err != nil {
			w.logger.WithError(err).Error("Knowledge base reload failed")
			return
		}
		w.logger.WithField("entries", w.store.Len()).Info("Knowledge base reloaded")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(w.config.DebounceInterval, reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("Knowledge base watcher error")
		}
	}
}
