// internal/journal/file.go
package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/domingochavezspecops/TradingScripts/internal/events"
	"go.uber.org/zap"
)

var (
	ErrHeaderMismatch = errors.New("journal file has a different header")
	ErrClosed         = errors.New("journal file is closed")
)

// file is the append-only CSV side of a Journal. Realized trades are flushed
// as soon as they are written; everything else waits for the flush ticker.
type file struct {
	mu     sync.Mutex
	f      *os.File
	w      *csv.Writer
	path   string
	closed bool
	rows   int

	stop   chan struct{}
	done   chan struct{}
	logger *zap.Logger
}

// openFile opens path for appending. A new or empty file gets the journal
// header; an existing file must already start with it.
func openFile(path string, flushEvery time.Duration, logger *zap.Logger) (*file, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}

	w := csv.NewWriter(f)
	header, err := csv.NewReader(f).Read()
	switch {
	case errors.Is(err, io.EOF):
		if err := w.Write(CSVHeaders()); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write journal header: %w", err)
		}
		w.Flush()
	case err != nil:
		f.Close()
		return nil, fmt.Errorf("failed to read journal header: %w", err)
	case !slices.Equal(header, CSVHeaders()):
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrHeaderMismatch, path)
	}

	jf := &file{
		f:      f,
		w:      w,
		path:   path,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
	go jf.flushLoop(flushEvery)
	return jf, nil
}

func (jf *file) append(e Entry) error {
	jf.mu.Lock()
	defer jf.mu.Unlock()

	if jf.closed {
		return ErrClosed
	}
	if err := jf.w.Write(e.ToCSV()); err != nil {
		return fmt.Errorf("failed to write journal row: %w", err)
	}
	jf.rows++

	if e.Event == events.PositionClosed {
		return jf.flushLocked()
	}
	return nil
}

func (jf *file) flushLocked() error {
	jf.w.Flush()
	if err := jf.w.Error(); err != nil {
		return fmt.Errorf("failed to flush journal: %w", err)
	}
	return nil
}

func (jf *file) flushLoop(every time.Duration) {
	defer close(jf.done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			jf.mu.Lock()
			var err error
			if !jf.closed {
				err = jf.flushLocked()
			}
			jf.mu.Unlock()
			if err != nil {
				jf.logger.Error("Periodic journal flush failed", zap.String("file", jf.path), zap.Error(err))
			}
		case <-jf.stop:
			return
		}
	}
}

// close flushes and closes the file. Calling it twice is a no-op.
func (jf *file) close() error {
	jf.mu.Lock()
	if jf.closed {
		jf.mu.Unlock()
		return nil
	}
	jf.closed = true
	close(jf.stop)
	flushErr := jf.flushLocked()
	if flushErr == nil {
		flushErr = jf.f.Sync()
	}
	closeErr := jf.f.Close()
	rows := jf.rows
	jf.mu.Unlock()

	<-jf.done
	jf.logger.Info("Journal file closed", zap.String("file", jf.path), zap.Int("rows", rows))
	return errors.Join(flushErr, closeErr)
}
