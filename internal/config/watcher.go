package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads Config from its source file in non-production
// environments, debouncing rapid successive writes the way an editor's
// save-on-every-keystroke would otherwise trigger. Grounded on the
// teacher's ConfigWatcher; scoped down to this module's single config file.
type Watcher struct {
	mu       sync.RWMutex
	current  *Config
	path     string
	logger   *zap.Logger
	fswatch  *fsnotify.Watcher
	onChange []func(*Config)
	stop     chan struct{}
}

// NewWatcher starts watching path for changes when cfg.Environment is not
// Production. In Production it returns a Watcher that simply holds cfg
// static — hot reload is a development convenience, not a production one.
func NewWatcher(path string, cfg *Config, logger *zap.Logger) (*Watcher, error) {
	w := &Watcher{current: cfg, path: path, logger: logger, stop: make(chan struct{})}

	if cfg.Environment == Production || path == "" {
		logger.Info("config hot reload disabled", zap.String("environment", string(cfg.Environment)))
		return w, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}
	w.fswatch = fsw
	go w.loop()
	logger.Info("config hot reload enabled", zap.String("path", path))
	return w, nil
}

func (w *Watcher) loop() {
	defer w.fswatch.Close()
	var debounce *time.Timer
	const delay = 500 * time.Millisecond

	for {
		select {
		case event, ok := <-w.fswatch.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(delay, w.reload)
		case err, ok := <-w.fswatch.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", zap.Error(err))
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error("config reload failed, keeping previous configuration", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := make([]func(*Config), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.Unlock()

	w.logger.Info("configuration reloaded")
	for _, cb := range callbacks {
		cb(cfg)
	}
}

// OnChange registers a callback invoked with the new Config after a
// successful reload.
func (w *Watcher) OnChange(cb func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, cb)
}

// Current returns the most recently loaded Config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Stop releases the underlying file watcher, if any.
func (w *Watcher) Stop() {
	if w.fswatch != nil {
		close(w.stop)
	}
}
