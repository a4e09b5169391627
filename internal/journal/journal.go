// internal/journal/journal.go
package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/domingochavezspecops/TradingScripts/internal/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultMaxRecent     = 100
	DefaultFlushInterval = 30 * time.Second
)

// Config configures a Journal. An empty Path keeps entries in memory only.
type Config struct {
	Path          string
	MaxRecent     int
	FlushInterval time.Duration
}

// Stats summarises what the journal has recorded.
type Stats struct {
	Total    int
	Opened   int
	Closed   int
	Evicted  int
	Rejected int
	Alerts   int
}

// Journal records engine events as CSV rows and keeps the latest ones in
// memory for the dashboard.
type Journal struct {
	mu        sync.RWMutex
	file      *file
	entries   []Entry
	maxRecent int
	stats     Stats
	logger    *zap.Logger
}

// New creates a journal. An existing CSV file is appended to; it must carry
// the journal header.
func New(cfg Config, zapLogger *zap.Logger) (*Journal, error) {
	if cfg.MaxRecent <= 0 {
		cfg.MaxRecent = DefaultMaxRecent
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}

	j := &Journal{
		entries:   make([]Entry, 0, cfg.MaxRecent),
		maxRecent: cfg.MaxRecent,
		logger:    zapLogger.Named("journal"),
	}

	if cfg.Path != "" {
		f, err := openFile(cfg.Path, cfg.FlushInterval, j.logger)
		if err != nil {
			return nil, err
		}
		j.file = f
		j.logger.Info("Trade journal initialized", zap.String("csv_file", cfg.Path))
	}

	return j, nil
}

// Attach subscribes the journal to every event type it records.
func (j *Journal) Attach(bus *events.Bus) events.Subscription {
	return bus.Subscribe(j,
		events.PositionOpened,
		events.PositionClosed,
		events.SymbolEvicted,
		events.EntryRejected,
		events.AlertFired,
	)
}

// Handle implements events.Handler.
func (j *Journal) Handle(_ context.Context, ev events.Event) error {
	entry, ok := FromEvent(ev)
	if !ok {
		return nil
	}
	return j.Record(entry)
}

// Record appends an entry.
func (j *Journal) Record(entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if len(j.entries) >= j.maxRecent {
		j.entries = j.entries[1:]
	}
	j.entries = append(j.entries, entry)

	j.stats.Total++
	switch entry.Event {
	case events.PositionOpened:
		j.stats.Opened++
	case events.PositionClosed:
		j.stats.Closed++
	case events.SymbolEvicted:
		j.stats.Evicted++
	case events.EntryRejected:
		j.stats.Rejected++
	case events.AlertFired:
		j.stats.Alerts++
	}

	if j.file == nil {
		return nil
	}
	if err := j.file.append(entry); err != nil {
		j.logger.Error("Failed to write journal entry",
			zap.String("id", entry.ID),
			zap.String("event", string(entry.Event)),
			zap.Error(err))
		return fmt.Errorf("failed to write journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if limit <= 0 || limit > len(j.entries) {
		limit = len(j.entries)
	}
	out := make([]Entry, 0, limit)
	for i := len(j.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, j.entries[i])
	}
	return out
}

// Stats returns counters for everything recorded since start.
func (j *Journal) Stats() Stats {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.stats
}

// Close flushes and closes the CSV file.
func (j *Journal) Close() error {
	if j.file == nil {
		return nil
	}
	j.logger.Info("Closing trade journal", zap.Int("entries", j.Stats().Total))
	return j.file.close()
}
