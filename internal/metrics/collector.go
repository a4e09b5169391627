// internal/metrics/collector.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "liqwatch"

// Collector owns the process metrics. A nil *Collector is valid and records
// nothing.
type Collector struct {
	registry *prometheus.Registry

	eventsTotal        *prometheus.CounterVec
	malformedTotal     prometheus.Counter
	entriesTotal       *prometheus.CounterVec
	rejectedTotal      *prometheus.CounterVec
	closesTotal        *prometheus.CounterVec
	evictionsTotal     prometheus.Counter
	alertsTotal        *prometheus.CounterVec
	windowsTotal       prometheus.Counter
	notificationsTotal *prometheus.CounterVec
	feedReconnects     prometheus.Counter
	feedConnected      prometheus.Gauge
	priceFetchTotal    *prometheus.CounterVec
	priceFetchDuration prometheus.Histogram
	balance            prometheus.Gauge
	maxDrawdown        prometheus.Gauge
	realizedPnL        prometheus.Gauge
	trackedSymbols     prometheus.Gauge
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "liquidation_events_total",
			Help:      "Liquidation events processed, by outcome",
		}, []string{"outcome"}),
		malformedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_events_total",
			Help:      "Feed messages dropped as malformed",
		}),
		entriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "Simulated entries, by direction",
		}, []string{"direction"}),
		rejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_rejected_total",
			Help:      "Simulated entries refused, by reason",
		}, []string{"reason"}),
		closesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "positions_closed_total",
			Help:      "Positions closed, by reason",
		}, []string{"reason"}),
		evictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "symbols_evicted_total",
			Help:      "Tracked symbols evicted to make room",
		}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Threshold alerts raised, by symbol",
		}, []string{"symbol"}),
		windowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_flushed_total",
			Help:      "Aggregation windows completed",
		}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications, by result",
		}, []string{"result"}),
		feedReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_reconnects_total",
			Help:      "Feed reconnect attempts",
		}),
		feedConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_connected",
			Help:      "1 while the liquidation feed is connected",
		}),
		priceFetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_fetches_total",
			Help:      "Ticker fetches, by status",
		}, []string{"status"}),
		priceFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "price_fetch_duration_seconds",
			Help:      "Ticker fetch latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "balance_usd",
			Help:      "Simulated account balance",
		}),
		maxDrawdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "max_drawdown_percent",
			Help:      "Maximum drawdown seen",
		}),
		realizedPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realized_pnl_usd",
			Help:      "Total realized PnL",
		}),
		trackedSymbols: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_symbols",
			Help:      "Symbols currently tracked",
		}),
	}

	c.registry.MustRegister(
		c.eventsTotal,
		c.malformedTotal,
		c.entriesTotal,
		c.rejectedTotal,
		c.closesTotal,
		c.evictionsTotal,
		c.alertsTotal,
		c.windowsTotal,
		c.notificationsTotal,
		c.feedReconnects,
		c.feedConnected,
		c.priceFetchTotal,
		c.priceFetchDuration,
		c.balance,
		c.maxDrawdown,
		c.realizedPnL,
		c.trackedSymbols,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Event counts a processed liquidation: "accepted" or "below_minimum".
func (c *Collector) Event(outcome string) {
	if c == nil {
		return
	}
	c.eventsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) Malformed() {
	if c == nil {
		return
	}
	c.malformedTotal.Inc()
}

func (c *Collector) Entry(direction string) {
	if c == nil {
		return
	}
	c.entriesTotal.WithLabelValues(direction).Inc()
}

func (c *Collector) EntryRejected(reason string) {
	if c == nil {
		return
	}
	c.rejectedTotal.WithLabelValues(reason).Inc()
}

func (c *Collector) Closed(reason string) {
	if c == nil {
		return
	}
	c.closesTotal.WithLabelValues(reason).Inc()
}

func (c *Collector) Evicted() {
	if c == nil {
		return
	}
	c.evictionsTotal.Inc()
}

func (c *Collector) Alert(symbol string) {
	if c == nil {
		return
	}
	c.alertsTotal.WithLabelValues(symbol).Inc()
}

func (c *Collector) WindowFlushed() {
	if c == nil {
		return
	}
	c.windowsTotal.Inc()
}

// Notification counts a notification outcome: "delivered", "suppressed" or "failed".
func (c *Collector) Notification(result string) {
	if c == nil {
		return
	}
	c.notificationsTotal.WithLabelValues(result).Inc()
}

func (c *Collector) FeedReconnect() {
	if c == nil {
		return
	}
	c.feedReconnects.Inc()
}

func (c *Collector) FeedConnected(connected bool) {
	if c == nil {
		return
	}
	if connected {
		c.feedConnected.Set(1)
		return
	}
	c.feedConnected.Set(0)
}

// PriceFetch records one ticker fetch.
func (c *Collector) PriceFetch(duration time.Duration, err error) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.priceFetchTotal.WithLabelValues(status).Inc()
	c.priceFetchDuration.Observe(duration.Seconds())
}

// Account publishes the account gauges.
func (c *Collector) Account(balance, maxDrawdownPct, realizedPnL float64, tracked int) {
	if c == nil {
		return
	}
	c.balance.Set(balance)
	c.maxDrawdown.Set(maxDrawdownPct)
	c.realizedPnL.Set(realizedPnL)
	c.trackedSymbols.Set(float64(tracked))
}
