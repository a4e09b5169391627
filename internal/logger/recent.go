// internal/logger/recent.go
package logger

import (
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// DefaultRecentSize is the number of entries RecentBuffer keeps by default.
const DefaultRecentSize = 200

// LogEntry is a single buffered log entry.
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Logger    string                 `json:"logger,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// RecentBuffer is a thread-safe ring buffer of the latest log entries.
type RecentBuffer struct {
	mu           sync.Mutex
	ring         []LogEntry
	maxSize      int
	currentIndex int
	wrapped      bool
	totalEntries uint64
}

// NewRecentBuffer creates a buffer holding up to maxSize entries.
func NewRecentBuffer(maxSize int) *RecentBuffer {
	if maxSize <= 0 {
		maxSize = DefaultRecentSize
	}
	return &RecentBuffer{
		ring:    make([]LogEntry, maxSize),
		maxSize: maxSize,
	}
}

// Add appends an entry, overwriting the oldest one when full.
func (rb *RecentBuffer) Add(entry LogEntry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.ring[rb.currentIndex] = entry
	rb.currentIndex = (rb.currentIndex + 1) % rb.maxSize
	if rb.currentIndex == 0 {
		rb.wrapped = true
	}
	rb.totalEntries++
}

// Recent returns up to limit entries, oldest first. A non-positive limit
// returns everything buffered.
func (rb *RecentBuffer) Recent(limit int) []LogEntry {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	count := rb.currentIndex
	if rb.wrapped {
		count = rb.maxSize
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	out := make([]LogEntry, 0, limit)
	start := (rb.currentIndex - limit + rb.maxSize) % rb.maxSize
	for i := 0; i < limit; i++ {
		out = append(out, rb.ring[(start+i)%rb.maxSize])
	}
	return out
}

// Total returns the number of entries ever added.
func (rb *RecentBuffer) Total() uint64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.totalEntries
}

// recentCore is a zapcore.Core that copies entries into a RecentBuffer.
type recentCore struct {
	zapcore.LevelEnabler
	buf    *RecentBuffer
	fields []zapcore.Field
}

// NewRecentCore returns a core that records entries at or above enab into buf.
func NewRecentCore(buf *RecentBuffer, enab zapcore.LevelEnabler) zapcore.Core {
	return &recentCore{LevelEnabler: enab, buf: buf}
}

func (c *recentCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &recentCore{LevelEnabler: c.LevelEnabler, buf: c.buf, fields: merged}
}

func (c *recentCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *recentCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	entry := LogEntry{
		Timestamp: ent.Time,
		Level:     ent.Level.CapitalString(),
		Logger:    ent.LoggerName,
		Message:   ent.Message,
	}
	if len(enc.Fields) > 0 {
		entry.Fields = enc.Fields
	}
	c.buf.Add(entry)
	return nil
}

func (c *recentCore) Sync() error { return nil }
