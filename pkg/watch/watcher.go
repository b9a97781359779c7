// Package watch monitors files for changes so their content hashes can be
// recomputed. Change bursts are debounced per file, since editors and
// build tools often produce several filesystem events per save.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/TheEntropyCollective/contenthash/pkg/common/logging"
)

// DefaultDebounce is used when no debounce interval is configured.
const DefaultDebounce = 500 * time.Millisecond

// Event reports that a watched file changed and settled.
type Event struct {
	Path string      // absolute path of the watched file
	Op   fsnotify.Op // last filesystem operation observed
	Time time.Time
}

// Watcher watches individual files for changes and emits debounced events.
//
// The parent directory of each file is registered with fsnotify rather
// than the file itself, so files replaced by rename (the common editor
// save strategy) keep being watched across recreation.
type Watcher struct {
	watcher      *fsnotify.Watcher
	watchedFiles map[string]bool
	watchedDirs  map[string]int // refcount of files per directory
	eventChan    chan Event
	errorChan    chan error
	debounce     time.Duration
	done         chan struct{}
	logger       *logging.Logger
	mu           sync.RWMutex

	debounceMu    sync.Mutex
	debounceTimer map[string]*time.Timer
	pendingOp     map[string]fsnotify.Op
	stopped       bool
}

// NewWatcher creates a new file watcher. A non-positive debounce selects
// DefaultDebounce.
func NewWatcher(debounce time.Duration) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		watcher:       watcher,
		watchedFiles:  make(map[string]bool),
		watchedDirs:   make(map[string]int),
		eventChan:     make(chan Event, 100),
		errorChan:     make(chan error, 10),
		debounce:      debounce,
		done:          make(chan struct{}),
		logger:        logging.GetGlobalLogger().WithComponent("watch"),
		debounceTimer: make(map[string]*time.Timer),
		pendingOp:     make(map[string]fsnotify.Op),
	}

	go w.eventLoop()

	return w, nil
}

// AddFile adds a file to be watched for changes
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("cannot watch a directory: %s", abs)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watchedFiles[abs] {
		return nil // Already watching this file
	}

	dir := filepath.Dir(abs)
	if w.watchedDirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to add path to watcher: %w", err)
		}
	}

	w.watchedFiles[abs] = true
	w.watchedDirs[dir]++

	w.logger.Debug("Watching file", map[string]interface{}{
		"path":     abs,
		"debounce": w.debounce.String(),
	})

	return nil
}

// RemoveFile removes a file from being watched
func (w *Watcher) RemoveFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.watchedFiles[abs] {
		return nil // Not watching this file
	}

	delete(w.watchedFiles, abs)

	dir := filepath.Dir(abs)
	w.watchedDirs[dir]--
	if w.watchedDirs[dir] <= 0 {
		delete(w.watchedDirs, dir)
		if err := w.watcher.Remove(dir); err != nil {
			return fmt.Errorf("failed to remove path from watcher: %w", err)
		}
	}

	return nil
}

// Events returns a channel that receives debounced change events
func (w *Watcher) Events() <-chan Event {
	return w.eventChan
}

// Errors returns a channel that receives errors
func (w *Watcher) Errors() <-chan error {
	return w.errorChan
}

// WatchedFiles returns a copy of currently watched file paths
func (w *Watcher) WatchedFiles() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	paths := make([]string, 0, len(w.watchedFiles))
	for path := range w.watchedFiles {
		paths = append(paths, path)
	}

	return paths
}

// Stop stops the watcher and closes the event and error channels. Pending
// debounce timers are cancelled; a timer callback already running is
// excluded by the stopped flag before it can send.
func (w *Watcher) Stop() error {
	err := w.watcher.Close()

	// Wait for the event loop so nothing is mid-send when we close
	<-w.done

	w.debounceMu.Lock()
	w.stopped = true
	for _, timer := range w.debounceTimer {
		timer.Stop()
	}
	w.debounceMu.Unlock()

	close(w.eventChan)
	close(w.errorChan)

	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// eventLoop processes fsnotify events until the underlying watcher closes
func (w *Watcher) eventLoop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errorChan <- err:
			default:
			}
		}
	}
}

// handleFsEvent debounces events for watched files. Directory-level noise
// for unwatched siblings is dropped here.
func (w *Watcher) handleFsEvent(event fsnotify.Event) {
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}

	w.mu.RLock()
	watched := w.watchedFiles[abs]
	w.mu.RUnlock()

	if !watched {
		return
	}

	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.stopped {
		return
	}

	w.pendingOp[abs] = event.Op
	if timer, exists := w.debounceTimer[abs]; exists {
		timer.Stop()
	}

	w.debounceTimer[abs] = time.AfterFunc(w.debounce, func() {
		w.emit(abs)
	})
}

// emit delivers the settled event for path. It runs in the debounce
// timer's goroutine, so it re-checks stopped under the lock that Stop
// takes before closing the channels.
func (w *Watcher) emit(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.stopped {
		return
	}

	op := w.pendingOp[path]
	delete(w.pendingOp, path)
	delete(w.debounceTimer, path)

	select {
	case w.eventChan <- Event{Path: path, Op: op, Time: time.Now()}:
	default:
		// Channel is full, report instead of blocking the timer goroutine
		w.logger.Warn("Event channel full, dropping event", map[string]interface{}{
			"path": path,
		})
		select {
		case w.errorChan <- fmt.Errorf("event channel full, dropping event for %s", path):
		default:
		}
	}
}
