package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a configuration file for changes and triggers reloads.
// It implements debouncing to prevent reload storms.
//
// When the configured path is a single file, the watcher registers the
// file's parent directory and filters events to that file. Editors commonly
// replace files on save (write to temp, rename over), which silently drops
// a direct file watch; watching the directory survives the replace.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	config   *WatcherConfig
	debounce *Debouncer

	// target is the base name to filter on when watching a single file.
	// Empty when watching a directory.
	target string

	// State
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WatcherConfig contains configuration for the config file watcher.
type WatcherConfig struct {
	// Path is the configuration file or directory to watch.
	Path string

	// DebounceInterval is the quiet period to wait before triggering a
	// reload after detecting file changes (default: 100ms).
	DebounceInterval time.Duration

	// Extensions is the list of file extensions that trigger reloads
	// when a directory is watched (e.g., ".yaml", ".yml").
	Extensions []string

	// SkipHidden controls whether to skip hidden files.
	SkipHidden bool
}

// DefaultWatcherConfig returns the default watcher configuration.
func DefaultWatcherConfig() *WatcherConfig {
	return &WatcherConfig{
		DebounceInterval: 100 * time.Millisecond,
		Extensions:       []string{".yaml", ".yml"},
		SkipHidden:       true,
	}
}

// NewWatcher creates a new configuration file watcher.
func NewWatcher(config *WatcherConfig, logger *slog.Logger) (*Watcher, error) {
	if config == nil {
		config = DefaultWatcherConfig()
	}
	if config.DebounceInterval == 0 {
		config.DebounceInterval = 100 * time.Millisecond
	}

	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:  watcher,
		logger:   logger,
		config:   config,
		debounce: NewDebouncer(config.DebounceInterval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	return w, nil
}

// Watch starts watching for file changes and invokes onReload after each
// debounced change. Reload errors are logged and watching continues. This
// is a blocking operation that runs until the context is cancelled or Stop
// is called.
func (w *Watcher) Watch(ctx context.Context, onReload func() error) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	if err := w.addPath(w.config.Path); err != nil {
		return fmt.Errorf("failed to watch path: %w", err)
	}

	w.logger.Info("Configuration watcher started",
		"path", w.config.Path,
		"debounce_ms", w.config.DebounceInterval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Configuration watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("Configuration watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if !w.shouldProcessEvent(event) {
				continue
			}

			w.logger.Debug("Configuration file event",
				"path", event.Name,
				"op", event.Op.String(),
			)

			w.debounce.Trigger(func() {
				w.logger.Info("Reloading configuration",
					"path", event.Name,
					"op", event.Op.String(),
				)

				if err := onReload(); err != nil {
					w.logger.Error("Configuration reload failed",
						"error", err,
					)
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}

			w.logger.Error("Configuration watcher error", "error", err)
			// Keep watching despite errors
		}
	}
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.debounce.Stop()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	return nil
}

// addPath registers the watch target. A file registers its parent
// directory; a directory registers itself.
func (w *Watcher) addPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return w.watcher.Add(path)
	}

	w.target = filepath.Base(path)
	return w.watcher.Add(filepath.Dir(path))
}

// shouldProcessEvent determines if an event should trigger a reload.
func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}

	base := filepath.Base(event.Name)

	// Watching a single file: only that file's events count.
	if w.target != "" {
		return base == w.target
	}

	if w.config.SkipHidden && strings.HasPrefix(base, ".") {
		return false
	}

	return w.hasValidExtension(strings.ToLower(filepath.Ext(event.Name)))
}

// hasValidExtension checks if a file extension should be watched.
func (w *Watcher) hasValidExtension(ext string) bool {
	for _, validExt := range w.config.Extensions {
		if ext == strings.ToLower(validExt) {
			return true
		}
	}
	return false
}

// Debouncer collapses rapid event bursts and triggers the callback only
// after a quiet period.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	callback func()
	stopCh   chan struct{}
}

// NewDebouncer creates a new debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Trigger arms the debouncer with a new event. The callback runs after the
// debounce interval unless another event arrives first.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.callback = callback

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, func() {
		select {
		case <-d.stopCh:
			return
		default:
			d.mu.Lock()
			cb := d.callback
			d.mu.Unlock()

			if cb != nil {
				cb()
			}
		}
	})
}

// Stop stops the debouncer and cancels any pending callback.
func (d *Debouncer) Stop() {
	close(d.stopCh)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
