package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stlalpha/tn5250term/internal/engineerrors"
	"github.com/stlalpha/tn5250term/internal/logging"
)

// Watcher hot-reloads the config file and, when configured, the PEM CA
// bundle it references, notifying a callback on change. A changed config
// only takes effect on the *next* connect attempt; the core never
// hot-swaps an in-flight connection (spec.md §4.7/§6).
type Watcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	onEvent func(path string)
}

// debounceDuration absorbs rapid successive writes from editors that
// truncate-then-write.
const debounceDuration = 500 * time.Millisecond

// NewWatcher watches configPath and, if non-empty, caBundlePath for
// changes. onEvent is invoked (debounced) with the path that changed.
func NewWatcher(configPath, caBundlePath string, onEvent func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, engineerrors.Wrap(engineerrors.KindConfig, "create file watcher", err)
	}

	w := &Watcher{
		watcher: fw,
		done:    make(chan struct{}),
		onEvent: onEvent,
	}

	if err := fw.Add(filepath.Dir(configPath)); err != nil {
		fw.Close()
		return nil, engineerrors.Wrap(engineerrors.KindConfig, fmt.Sprintf("watch %s", configPath), err)
	}
	logging.Info("config: watching %s for changes", configPath)

	if caBundlePath != "" {
		if err := fw.Add(caBundlePath); err != nil {
			logging.Debug("config: failed to watch CA bundle %s: %v", caBundlePath, err)
		} else {
			logging.Info("config: watching %s for changes", caBundlePath)
		}
	}

	go w.loop()
	return w, nil
}

// Stop stops the watcher; safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return
	}
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	w.watcher.Close()
	w.watcher = nil
}

func (w *Watcher) loop() {
	var timer *time.Timer
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			path := ev.Name
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDuration, func() {
				logging.Info("config: change detected: %s", path)
				if w.onEvent != nil {
					w.onEvent(path)
				}
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Debug("config: watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}
