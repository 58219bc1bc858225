package logger

import (
	"strings"
	"sync"
)

// Level names recorded by Capture.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"
)

// Entry is a single record kept by Capture.
type Entry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// Capture is an in-memory leveled logger. It has the same method set as
// *Logger, so it can be injected wherever the engine takes a logger. Fatal
// is recorded and returns; it never exits the process.
type Capture struct {
	mu      sync.Mutex
	entries []Entry
}

// NewCapture creates an empty Capture.
func NewCapture() *Capture {
	return &Capture{}
}

func (c *Capture) record(level, msg string, fields []map[string]interface{}) {
	merged := make(map[string]interface{})
	for _, fm := range fields {
		for k, v := range fm {
			merged[k] = v
		}
	}
	c.mu.Lock()
	c.entries = append(c.entries, Entry{Level: level, Message: msg, Fields: merged})
	c.mu.Unlock()
}

func (c *Capture) Debug(msg string, fields ...map[string]interface{}) {
	c.record(LevelDebug, msg, fields)
}

func (c *Capture) Info(msg string, fields ...map[string]interface{}) {
	c.record(LevelInfo, msg, fields)
}

func (c *Capture) Warn(msg string, fields ...map[string]interface{}) {
	c.record(LevelWarn, msg, fields)
}

func (c *Capture) Error(msg string, fields ...map[string]interface{}) {
	c.record(LevelError, msg, fields)
}

func (c *Capture) Fatal(msg string, fields ...map[string]interface{}) {
	c.record(LevelFatal, msg, fields)
}

// Entries returns a copy of everything recorded so far.
func (c *Capture) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Count returns how many entries were recorded at level.
func (c *Capture) Count(level string) int {
	n := 0
	for _, e := range c.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Contains reports whether an entry at level has a message containing substr.
func (c *Capture) Contains(level, substr string) bool {
	for _, e := range c.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// Reset drops all recorded entries.
func (c *Capture) Reset() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}
