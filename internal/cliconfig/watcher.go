package cliconfig

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/dropship/internal/ports"
)

// DefaultDebounceDelay is how long the watcher waits after the last write
// before reloading.
const DefaultDebounceDelay = 100 * time.Millisecond

// Watcher reloads the config file when it changes and hands every valid
// result to onChange. Invalid edits are logged and ignored.
type Watcher struct {
	mu sync.Mutex

	path          string
	base          Config
	changed       map[string]bool
	debounceDelay time.Duration
	logger        ports.Logger
	onChange      func(Config)

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// NewWatcher creates a watcher for path. base and changed are the same
// values passed to Load, so flags keep winning across reloads.
func NewWatcher(path string, base Config, changed map[string]bool, logger ports.Logger, onChange func(Config)) *Watcher {
	return &Watcher{
		path:          path,
		base:          base,
		changed:       changed,
		debounceDelay: DefaultDebounceDelay,
		logger:        logger,
		onChange:      onChange,
	}
}

// Start begins watching the directory holding the config file.
// Editors often replace files instead of writing them, so the directory is
// watched rather than the file itself.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.loop(watchCtx, fw)

	w.logger.Info("watching config file", ports.String("path", w.path))
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()

	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fw.Close()

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", ports.Err(err))
		}
	}
}

func (w *Watcher) scheduleReload(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		w.reload()
	})
}

func (w *Watcher) reload() {
	cfg, err := Load(w.base, w.path, w.changed)
	if err != nil {
		w.logger.Error("config reload rejected, keeping previous settings",
			ports.String("path", w.path),
			ports.Err(err),
		)
		return
	}
	w.logger.Info("config reloaded", ports.String("path", w.path))
	w.onChange(cfg)
}
