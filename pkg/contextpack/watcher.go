package contextpack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must be quiet before the change
// callback fires.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors the project tree and reports changed context
// files after a debounce window, so a running service can refresh
// its pack and index.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(path string)

	running bool
	stopCh  chan struct{}
	mu      sync.RWMutex

	pending   map[string]time.Time
	pendingMu sync.Mutex
}

// NewWatcher creates a watcher over the project root. onChange
// receives the absolute path of each settled file change.
func NewWatcher(root string, onChange func(path string)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		root:     root,
		watcher:  fsWatcher,
		debounce: DefaultDebounce,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		pending:  make(map[string]time.Time),
	}, nil
}

// Start begins watching for file changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addDirectories(); err != nil {
		return fmt.Errorf("add directories: %w", err)
	}

	go w.processEvents()
	go w.processDebounced()

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	return w.watcher.Close()
}

// IsRunning returns whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Watcher) addDirectories() error {
	return filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		rel, _ := filepath.Rel(w.root, path)
		if shouldSkipDir(rel) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			// Some directories may not be accessible.
			fmt.Fprintf(os.Stderr, "warning: cannot watch %s: %v\n", path, err)
		}

		return nil
	})
}

func shouldSkipDir(relPath string) bool {
	skipDirs := []string{"vendor", ".git", "node_modules", ".prpkit"}

	for _, dir := range skipDirs {
		if relPath == dir || strings.HasPrefix(relPath, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// watchedFile reports whether a change to this file affects context.
func watchedFile(path string) bool {
	switch filepath.Base(path) {
	case "go.mod", "pyproject.toml", "package.json", "Makefile", "CLAUDE.md":
		return true
	}
	return strings.HasSuffix(path, ".md")
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !watchedFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			w.pendingMu.Lock()
			w.pending[event.Name] = time.Now()
			w.pendingMu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "watcher error: %v\n", err)
		}
	}
}

func (w *Watcher) processDebounced() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case <-ticker.C:
			w.processPendingFiles()
		}
	}
}

func (w *Watcher) processPendingFiles() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	now := time.Now()
	for path, ts := range w.pending {
		if now.Sub(ts) < w.debounce {
			continue
		}

		delete(w.pending, path)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		if w.onChange != nil {
			w.onChange(path)
		}
	}
}
