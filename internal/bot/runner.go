// internal/bot/runner.go
package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/domingochavezspecops/TradingScripts/internal/config"
	"github.com/domingochavezspecops/TradingScripts/internal/events"
	"github.com/domingochavezspecops/TradingScripts/internal/feed"
	"github.com/domingochavezspecops/TradingScripts/internal/journal"
	"github.com/domingochavezspecops/TradingScripts/internal/metrics"
	"github.com/domingochavezspecops/TradingScripts/internal/monitor"
	"github.com/domingochavezspecops/TradingScripts/internal/notify"
	"github.com/domingochavezspecops/TradingScripts/internal/pricefeed"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultStatusInterval is how often a headless runner logs a status line.
const DefaultStatusInterval = 30 * time.Second

// RunnerOption customizes a Runner.
type RunnerOption func(*runnerOptions)

type runnerOptions struct {
	notifier       notify.Notifier
	fetcher        pricefeed.Fetcher
	collector      *metrics.Collector
	statusInterval time.Duration
}

// WithNotifier replaces the notifier chosen from configuration.
func WithNotifier(n notify.Notifier) RunnerOption {
	return func(o *runnerOptions) { o.notifier = n }
}

// WithFetcher replaces the REST ticker client.
func WithFetcher(f pricefeed.Fetcher) RunnerOption {
	return func(o *runnerOptions) { o.fetcher = f }
}

// WithCollector uses c instead of a fresh metrics collector.
func WithCollector(c *metrics.Collector) RunnerOption {
	return func(o *runnerOptions) { o.collector = c }
}

// WithStatusInterval sets the headless status log period.
func WithStatusInterval(d time.Duration) RunnerOption {
	return func(o *runnerOptions) { o.statusInterval = d }
}

// Runner wires the monitor together and runs its workers: the feed
// listener, the price updater, the notification dispatcher and, when
// configured, the metrics server and the headless status log.
type Runner struct {
	cfg    *config.Config
	logger *zap.Logger

	metrics    *metrics.Collector
	bus        *events.Bus
	journal    *journal.Journal
	engine     *monitor.Engine
	dispatcher *notify.Dispatcher
	listener   *feed.Listener
	updater    *pricefeed.Updater
	shutdown   *ShutdownHandler

	statusInterval time.Duration

	startOnce sync.Once
	started   chan struct{}
	group     *errgroup.Group
}

// NewRunner builds every component from cfg. Nothing runs until Start.
func NewRunner(cfg *config.Config, logger *zap.Logger, opts ...RunnerOption) (*Runner, error) {
	o := runnerOptions{statusInterval: DefaultStatusInterval}
	for _, opt := range opts {
		opt(&o)
	}
	if o.collector == nil {
		o.collector = metrics.NewCollector()
	}

	monitorCfg, err := cfg.MonitorConfig()
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:            cfg,
		logger:         logger.Named("runner"),
		metrics:        o.collector,
		shutdown:       NewShutdownHandler(logger, DefaultShutdownTimeout),
		statusInterval: o.statusInterval,
		started:        make(chan struct{}),
	}

	notifier := o.notifier
	if notifier == nil {
		notifier, err = r.newNotifier()
		if err != nil {
			return nil, err
		}
	}

	r.journal, err = journal.New(journal.Config{Path: cfg.Journal.Path}, logger)
	if err != nil {
		return nil, err
	}
	r.shutdown.Add("journal", r.journal)

	r.bus = events.NewBus(logger, events.DefaultBufferSize)
	r.journal.Attach(r.bus)
	r.shutdown.Add("event_bus", r.bus)

	r.dispatcher = notify.NewDispatcher(notifier, notify.DefaultQueueSize, cfg.Notifier.Timeout, r.metrics, logger)
	r.engine = monitor.NewEngine(monitorCfg, r.dispatcher, r.metrics, logger, monitor.WithPublisher(r.bus))
	r.listener = feed.NewListener(cfg.FeedConfig(), r.engine, r.metrics, logger)

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = pricefeed.NewClient(cfg.Prices.URL, cfg.Prices.Timeout, logger)
	}
	r.updater = pricefeed.NewUpdater(fetcher, r.engine, cfg.Prices.Interval, r.metrics, logger)

	return r, nil
}

func (r *Runner) newNotifier() (notify.Notifier, error) {
	window, err := r.cfg.DeliveryWindow()
	if err != nil {
		return nil, err
	}
	if r.cfg.Notifier.WebhookURL == "" {
		r.logger.Info("No webhook configured, notifications go to the log",
			zap.Stringer("window", window))
		return notify.NewLog(r.logger, window.Contains), nil
	}
	return notify.NewDiscord(r.cfg.Notifier.WebhookURL, r.logger,
		notify.WithPolicy(window.Contains),
		notify.WithUsername(r.cfg.Notifier.Username),
		notify.WithHTTPClient(&http.Client{Timeout: r.cfg.Notifier.Timeout}),
	), nil
}

// Engine returns the shared monitor engine.
func (r *Runner) Engine() *monitor.Engine {
	return r.engine
}

// Journal returns the event journal.
func (r *Runner) Journal() *journal.Journal {
	return r.journal
}

// Connected reports whether the feed is currently connected.
func (r *Runner) Connected() bool {
	return r.listener.Connected()
}

// Start queues the startup notification and launches the workers. Only the
// first call has any effect.
func (r *Runner) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		g, gctx := errgroup.WithContext(ctx)
		r.group = g

		r.logger.Info("Starting liquidation monitor",
			zap.String("feed", r.cfg.Feed.URL),
			zap.String("min_liquidation", r.engine.MinLiquidation().String()))
		r.dispatcher.Enqueue(notify.StartupMessage)

		g.Go(func() error { return r.dispatcher.Run(gctx) })
		g.Go(func() error { return r.listener.Run(gctx) })
		g.Go(func() error { return r.updater.Run(gctx) })
		if r.cfg.Metrics.Addr != "" {
			g.Go(func() error { return r.metrics.Serve(gctx, r.cfg.Metrics.Addr, r.logger) })
		}
		if r.cfg.UI.Headless {
			g.Go(func() error { return r.logStatus(gctx) })
		}
		close(r.started)
	})
}

// Wait blocks until the workers started by Start have stopped. It returns
// immediately if Start was never called.
func (r *Runner) Wait() error {
	select {
	case <-r.started:
	default:
		return nil
	}
	if err := r.group.Wait(); err != nil {
		return fmt.Errorf("worker failed: %w", err)
	}
	return nil
}

// Run starts the workers and blocks until ctx is cancelled or a worker fails.
func (r *Runner) Run(ctx context.Context) error {
	r.Start(ctx)
	return r.Wait()
}

// Shutdown closes the registered services.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.logger.Info("Bot shutting down gracefully")
	return r.shutdown.Shutdown(ctx)
}

func (r *Runner) logStatus(ctx context.Context) error {
	ticker := time.NewTicker(r.statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snap := r.engine.Snapshot()
			size, unrealized := snap.OpenExposure()
			r.logger.Info("Status",
				zap.Bool("feed_connected", r.Connected()),
				zap.Uint64("events", snap.Processed),
				zap.Int("tracked", len(snap.Rows)),
				zap.String("balance", snap.Account.Balance.StringFixed(2)),
				zap.String("max_drawdown_pct", snap.Account.MaxDrawdownPct.StringFixed(2)),
				zap.String("realized_pnl", snap.Account.TotalRealizedPnL.StringFixed(2)),
				zap.String("open_size", size.StringFixed(2)),
				zap.String("unrealized_pnl", unrealized.StringFixed(2)))
		}
	}
}
