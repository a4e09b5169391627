// internal/pricefeed/updater.go
package pricefeed

import (
	"context"
	"time"

	"github.com/domingochavezspecops/TradingScripts/internal/metrics"
	"go.uber.org/zap"
)

const DefaultInterval = 60 * time.Second

// Sink receives each successful batch of tickers.
type Sink interface {
	ApplyTickers(ctx context.Context, tickers []Ticker)
}

// Updater polls a Fetcher on a fixed interval. A failed poll is logged and
// skipped; the next tick tries again.
type Updater struct {
	fetcher  Fetcher
	sink     Sink
	interval time.Duration
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewUpdater creates an updater that polls every interval.
func NewUpdater(f Fetcher, sink Sink, interval time.Duration, m *metrics.Collector, logger *zap.Logger) *Updater {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Updater{
		fetcher:  f,
		sink:     sink,
		interval: interval,
		metrics:  m,
		logger:   logger.Named("price_updater"),
	}
}

// Run polls immediately and then on every tick until ctx is cancelled.
func (u *Updater) Run(ctx context.Context) error {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	_ = u.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			u.logger.Info("Price updater stopped")
			return nil
		case <-ticker.C:
			_ = u.Poll(ctx)
		}
	}
}

// Poll performs a single fetch and hands the result to the sink.
func (u *Updater) Poll(ctx context.Context) error {
	start := time.Now()
	tickers, err := u.fetcher.Fetch(ctx)
	u.metrics.PriceFetch(time.Since(start), err)
	if err != nil {
		if ctx.Err() == nil {
			u.logger.Error("Failed to fetch prices", zap.Error(err))
		}
		return err
	}

	u.sink.ApplyTickers(ctx, tickers)
	return nil
}
