// Package watcher feeds the contents of a file on disk into the playground
// so that an external editor can drive the preview.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/codeplay/internal/clock"
	"github.com/conneroisu/codeplay/internal/debounce"
	"github.com/conneroisu/codeplay/internal/logging"
)

// DefaultDelay coalesces the bursts of events editors produce on save.
const DefaultDelay = 50 * time.Millisecond

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeHandler receives the file contents after each settled change.
type ChangeHandler func(event ChangeEvent, contents string) error

// FileWatcher watches one file. The parent directory is watched so that
// editors that save by renaming a temporary file are still seen.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	path      string
	debouncer *debounce.Debouncer[ChangeEvent]
	handlers  []ChangeHandler
	logger    logging.Logger
	mutex     sync.RWMutex
	stopOnce  sync.Once
}

// NewFileWatcher creates a watcher for path.
func NewFileWatcher(path string, delay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	cleanPath, err := validatePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher: w,
		path:    cleanPath,
		logger:  logger.WithComponent("watcher"),
	}
	fw.debouncer = debounce.New(delay, clock.New(), fw.dispatch)
	return fw, nil
}

// Path returns the watched file.
func (fw *FileWatcher) Path() string { return fw.path }

// AddHandler adds a change handler
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// validatePath cleans path and makes it absolute.
func validatePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("path contains directory traversal: %s", path)
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}
	return absPath, nil
}

// Start delivers the current contents once and then watches for changes
// until ctx is done.
func (fw *FileWatcher) Start(ctx context.Context) error {
	info, err := os.Stat(fw.path)
	if err != nil {
		return fmt.Errorf("watching %s: %w", fw.path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("watching %s: is a directory", fw.path)
	}

	if err := fw.watcher.Add(filepath.Dir(fw.path)); err != nil {
		return fmt.Errorf("watching %s: %w", fw.path, err)
	}

	fw.dispatch(ChangeEvent{Type: EventTypeCreated, Path: fw.path, ModTime: info.ModTime(), Size: info.Size()})

	go fw.watchLoop(ctx)
	return nil
}

// Stop stops the file watcher and cleans up resources
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		fw.debouncer.Cancel()
		err = fw.watcher.Close()
	})
	return err
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			// Log error but continue watching
			fw.logger.Warn(ctx, err, "File watcher error")
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != fw.path {
		return
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = EventTypeCreated
	case event.Op&fsnotify.Write == fsnotify.Write:
		eventType = EventTypeModified
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		eventType = EventTypeDeleted
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		eventType = EventTypeRenamed
	default:
		return
	}

	changeEvent := ChangeEvent{Type: eventType, Path: event.Name}
	if info, err := os.Stat(event.Name); err == nil {
		changeEvent.ModTime = info.ModTime()
		changeEvent.Size = info.Size()
	}

	fw.debouncer.Trigger(changeEvent)
}

// dispatch reads the file and hands it to every handler. A file that is
// gone keeps the editor as it was.
func (fw *FileWatcher) dispatch(event ChangeEvent) {
	ctx := context.Background()

	data, err := os.ReadFile(fw.path)
	if err != nil {
		if event.Type != EventTypeDeleted && event.Type != EventTypeRenamed {
			fw.logger.Warn(ctx, err, "Failed to read watched file", "path", fw.path)
		}
		return
	}

	fw.mutex.RLock()
	handlers := fw.handlers
	fw.mutex.RUnlock()

	for _, handler := range handlers {
		if err := handler(event, string(data)); err != nil {
			// Log error but continue processing
			fw.logger.Warn(ctx, err, "File watcher handler error", "event", event.Type.String())
		}
	}
}
