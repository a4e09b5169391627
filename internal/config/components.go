// internal/config/components.go
package config

import (
	"fmt"

	"github.com/domingochavezspecops/TradingScripts/internal/aggregate"
	"github.com/domingochavezspecops/TradingScripts/internal/feed"
	"github.com/domingochavezspecops/TradingScripts/internal/ledger"
	"github.com/domingochavezspecops/TradingScripts/internal/logger"
	"github.com/domingochavezspecops/TradingScripts/internal/monitor"
	"github.com/domingochavezspecops/TradingScripts/internal/notify"
	"github.com/domingochavezspecops/TradingScripts/internal/risk"
	"github.com/shopspring/decimal"
)

// MonitorConfig converts the trading and alert settings.
func (c *Config) MonitorConfig() (monitor.Config, error) {
	reentry, err := ledger.ParseReentryPolicy(c.Trading.ReentryPolicy)
	if err != nil {
		return monitor.Config{}, fmt.Errorf("trading.reentry_policy: %w", err)
	}
	return monitor.Config{
		Ledger: ledger.Config{
			StartingBalance: decimal.NewFromFloat(c.Trading.StartingBalance),
			Capacity:        c.Trading.MaxTracked,
			Risk: risk.Policy{
				StopLossPct:   decimal.NewFromFloat(c.Trading.StopLossPct),
				TakeProfitPct: decimal.NewFromFloat(c.Trading.TakeProfitPct),
			},
			Reentry: reentry,
		},
		Window: aggregate.Config{
			Threshold: decimal.NewFromFloat(c.Alerts.Threshold),
			Interval:  c.Alerts.Interval,
		},
		TradeSize:      decimal.NewFromFloat(c.Trading.TradeSize),
		MinLiquidation: decimal.NewFromFloat(c.Trading.MinLiquidation),
	}, nil
}

// FeedConfig converts the feed settings.
func (c *Config) FeedConfig() feed.Config {
	return feed.Config{
		URL:              c.Feed.URL,
		ReconnectDelay:   c.Feed.ReconnectDelay,
		ReadTimeout:      c.Feed.ReadTimeout,
		PingInterval:     feed.DefaultPingInterval,
		HandshakeTimeout: feed.DefaultHandshakeTimeout,
	}
}

// DeliveryWindow parses the notifier quiet-hours window.
func (c *Config) DeliveryWindow() (notify.DeliveryWindow, error) {
	w, err := notify.ParseDeliveryWindow(c.Notifier.WindowStart, c.Notifier.WindowEnd)
	if err != nil {
		return notify.DeliveryWindow{}, fmt.Errorf("notifier window: %w", err)
	}
	return w, nil
}

// LoggerConfig converts the log settings. The console sink is enabled only
// in headless mode.
func (c *Config) LoggerConfig() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.File = c.Log.File
	cfg.Level = c.Log.Level
	cfg.Console = c.UI.Headless
	return cfg
}

// PromptForMinimum reports whether the minimum liquidation value must be
// asked for interactively.
func (c *Config) PromptForMinimum() bool {
	return c.Trading.MinLiquidation <= 0 && !c.UI.Headless
}
