// Package watch triggers a rescan when files change under a watched root,
// debounced so a burst of edits (a git checkout, an editor autosave storm)
// that fits within the debounce delay collapses into a single rescan rather
// than one per file.
package watch

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

var watchLog = log.New(os.Stderr, "[librarian:watch] ", log.Ltime)

const DefaultDebounceDelay = 5 * time.Second

// DefaultSkipDirs are never watched even if they appear under the root.
var DefaultSkipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, ".cache": true,
}

// Config controls a Watcher.
type Config struct {
	Root          string
	DebounceDelay time.Duration
	SkipDirs      []string
}

// RescanFunc is invoked once per debounced batch of changes.
type RescanFunc func(changedPaths []string) error

// Watcher watches Config.Root and calls a RescanFunc once DebounceDelay has
// passed since the first change of a batch. Changes that arrive during that
// wait join the batch; they do not restart the delay.
type Watcher struct {
	fsnotify *fsnotify.Watcher
	config   Config
	rescan   RescanFunc

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu           sync.Mutex
	pending      map[string]struct{}
	debounceOnce sync.Once

	dirsWatched int
}

// New creates a Watcher. It does not start watching until Start is called.
func New(config Config, rescan RescanFunc) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if config.DebounceDelay == 0 {
		config.DebounceDelay = DefaultDebounceDelay
	}

	skip := make(map[string]bool, len(DefaultSkipDirs))
	for k, v := range DefaultSkipDirs {
		skip[k] = v
	}
	for _, d := range config.SkipDirs {
		skip[d] = true
	}
	config.SkipDirs = nil
	for d := range skip {
		config.SkipDirs = append(config.SkipDirs, d)
	}

	return &Watcher{
		fsnotify: fsWatcher,
		config:   config,
		rescan:   rescan,
		stop:     make(chan struct{}),
		pending:  make(map[string]struct{}),
	}, nil
}

func (w *Watcher) skipDir(name string) bool {
	if len(name) > 1 && name[0] == '.' {
		return true
	}
	for _, d := range w.config.SkipDirs {
		if d == name {
			return true
		}
	}
	return false
}

// Start walks Root adding every directory to the fsnotify watch list, then
// begins processing change events in the background.
func (w *Watcher) Start() error {
	err := filepath.Walk(w.config.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != w.config.Root && w.skipDir(info.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsnotify.Add(path); err == nil {
			w.dirsWatched++
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.wg.Add(1)
	go w.processEvents()

	watchLog.Printf("watching %d directories under %s (debounce: %v)", w.dirsWatched, w.config.Root, w.config.DebounceDelay)
	return nil
}

// Stop halts event processing and releases the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
	return w.fsnotify.Close()
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.skipDir(filepath.Base(event.Name)) {
						if err := w.fsnotify.Add(event.Name); err == nil {
							w.dirsWatched++
						}
					}
					continue
				}
			}

			name := filepath.Base(event.Name)
			if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".tmp") {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.queueChange(event.Name)
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			watchLog.Printf("error: %v", err)
		}
	}
}

func (w *Watcher) queueChange(path string) {
	w.mu.Lock()
	w.pending[path] = struct{}{}
	w.debounceOnce.Do(func() {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			select {
			case <-time.After(w.config.DebounceDelay):
				w.flushPending()
			case <-w.stop:
				return
			}
		}()
	})
	w.mu.Unlock()
}

func (w *Watcher) flushPending() {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]struct{})
	w.debounceOnce = sync.Once{}
	w.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}

	watchLog.Printf("rescanning after %d file changes", len(paths))
	if err := w.rescan(paths); err != nil {
		watchLog.Printf("rescan failed: %v", err)
	}
}
