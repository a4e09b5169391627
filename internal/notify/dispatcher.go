// internal/notify/dispatcher.go
package notify

import (
	"context"
	"time"

	"github.com/domingochavezspecops/TradingScripts/internal/metrics"
	"go.uber.org/zap"
)

// DefaultQueueSize is the number of batches queued before Enqueue drops.
const DefaultQueueSize = 64

// Dispatcher sends queued messages one at a time on its own goroutine so
// producers never wait on the network. Messages keep their enqueue order.
// The queue holds batches, so a window report with many alerts takes a
// single slot.
type Dispatcher struct {
	notifier Notifier
	queue    chan []string
	timeout  time.Duration
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher with a bounded queue.
func NewDispatcher(n Notifier, queueSize int, timeout time.Duration, m *metrics.Collector, logger *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		notifier: n,
		queue:    make(chan []string, queueSize),
		timeout:  timeout,
		metrics:  m,
		logger:   logger.Named("dispatcher"),
	}
}

// Enqueue queues messages as one batch without blocking. When the queue is
// full the whole batch is dropped and Enqueue reports false.
func (d *Dispatcher) Enqueue(messages ...string) bool {
	if len(messages) == 0 {
		return true
	}
	batch := append([]string(nil), messages...)
	select {
	case d.queue <- batch:
		return true
	default:
		d.logger.Warn("Notification queue full, dropping messages",
			zap.Int("count", len(batch)),
			zap.String("first", batch[0]))
		for range batch {
			d.metrics.Notification("dropped")
		}
		return false
	}
}

// Run delivers queued messages until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch := <-d.queue:
			for _, msg := range batch {
				if ctx.Err() != nil {
					return nil
				}
				d.deliver(ctx, msg)
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, message string) (Result, error) {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	res, err := d.notifier.Send(sendCtx, message)
	if err != nil {
		d.logger.Error("Failed to send notification", zap.String("message", message), zap.Error(err))
		d.metrics.Notification("failed")
		return res, err
	}
	d.metrics.Notification(string(res))
	return res, nil
}
