package console

import (
	"sync"
	"time"
)

// DefaultLimit is the number of lines kept in the view.
const DefaultLimit = 100

// Level is the severity of a log line.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// LogEntry is one intercepted console call.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
}

// Line is the entry as displayed: "[15:04:05] message".
func (e LogEntry) Line() string {
	return "[" + e.Timestamp.Format(TimeFormat) + "] " + e.Message
}

// LogView is a FIFO of the most recent entries. When full, the oldest entry
// is evicted before the new one is appended.
type LogView struct {
	mutex       sync.RWMutex
	limit       int
	entries     []LogEntry
	subscribers map[int]func(LogEntry)
	nextID      int
}

// NewLogView creates a view holding at most limit entries. A non-positive
// limit uses DefaultLimit.
func NewLogView(limit int) *LogView {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &LogView{
		limit:       limit,
		entries:     make([]LogEntry, 0, limit),
		subscribers: make(map[int]func(LogEntry)),
	}
}

// Append adds e and notifies subscribers outside the lock.
func (v *LogView) Append(e LogEntry) {
	v.mutex.Lock()
	if len(v.entries) >= v.limit {
		copy(v.entries, v.entries[1:])
		v.entries = v.entries[:len(v.entries)-1]
	}
	v.entries = append(v.entries, e)

	subs := make([]func(LogEntry), 0, len(v.subscribers))
	for _, fn := range v.subscribers {
		subs = append(subs, fn)
	}
	v.mutex.Unlock()

	for _, fn := range subs {
		fn(e)
	}
}

// Entries returns a copy of the view, oldest first.
func (v *LogView) Entries() []LogEntry {
	v.mutex.RLock()
	defer v.mutex.RUnlock()

	out := make([]LogEntry, len(v.entries))
	copy(out, v.entries)
	return out
}

// Lines returns the display form of every entry, oldest first.
func (v *LogView) Lines() []string {
	entries := v.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Line()
	}
	return lines
}

// Len returns the number of entries held.
func (v *LogView) Len() int {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return len(v.entries)
}

// Limit returns the view bound.
func (v *LogView) Limit() int { return v.limit }

// Subscribe registers fn for every future append and returns a function
// that removes it.
func (v *LogView) Subscribe(fn func(LogEntry)) func() {
	v.mutex.Lock()
	id := v.nextID
	v.nextID++
	v.subscribers[id] = fn
	v.mutex.Unlock()

	return func() {
		v.mutex.Lock()
		delete(v.subscribers, id)
		v.mutex.Unlock()
	}
}
