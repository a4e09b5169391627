// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/domingochavezspecops/TradingScripts/internal/ledger"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LIQWATCH_FEED_URL.
const EnvPrefix = "LIQWATCH"

type Config struct {
	Feed     FeedConfig     `mapstructure:"feed"`
	Prices   PricesConfig   `mapstructure:"prices"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	UI       UIConfig       `mapstructure:"ui"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Journal  JournalConfig  `mapstructure:"journal"`
}

type FeedConfig struct {
	URL            string        `mapstructure:"url"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
}

type PricesConfig struct {
	URL      string        `mapstructure:"url"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type TradingConfig struct {
	StartingBalance float64 `mapstructure:"starting_balance"`
	TradeSize       float64 `mapstructure:"trade_size"`
	MaxTracked      int     `mapstructure:"max_tracked"`
	StopLossPct     float64 `mapstructure:"stop_loss_pct"`
	TakeProfitPct   float64 `mapstructure:"take_profit_pct"`
	ReentryPolicy   string  `mapstructure:"reentry_policy"`
	// MinLiquidation of zero means ask at startup.
	MinLiquidation float64 `mapstructure:"min_liquidation"`
}

type AlertsConfig struct {
	Threshold float64       `mapstructure:"threshold"`
	Interval  time.Duration `mapstructure:"interval"`
}

type NotifierConfig struct {
	WebhookURL  string        `mapstructure:"webhook_url"`
	Username    string        `mapstructure:"username"`
	WindowStart string        `mapstructure:"window_start"`
	WindowEnd   string        `mapstructure:"window_end"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type UIConfig struct {
	Refresh  time.Duration `mapstructure:"refresh"`
	Headless bool          `mapstructure:"headless"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type JournalConfig struct {
	Path string `mapstructure:"path"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"feed.url":                 "wss://fstream.binance.com/ws/!forceOrder@arr",
		"feed.reconnect_delay":     "5s",
		"feed.read_timeout":        "10m",
		"prices.url":               "https://fapi.binance.com/fapi/v1/ticker/24hr",
		"prices.interval":          "60s",
		"prices.timeout":           "10s",
		"trading.starting_balance": 10000.0,
		"trading.trade_size":       100.0,
		"trading.max_tracked":      15,
		"trading.stop_loss_pct":    10.0,
		"trading.take_profit_pct":  5.0,
		"trading.reentry_policy":   "follow_event",
		"trading.min_liquidation":  0.0,
		"alerts.threshold":         50000.0,
		"alerts.interval":          "5m",
		"notifier.webhook_url":     "",
		"notifier.username":        "Liquidation Bot",
		"notifier.window_start":    "07:00:00",
		"notifier.window_end":      "23:59:59",
		"notifier.timeout":         "10s",
		"ui.refresh":               "1s",
		"ui.headless":              false,
		"log.file":                 "logs/liqwatch.log",
		"log.level":                "info",
		"metrics.addr":             "",
		"journal.path":             "",
	}
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"min-liquidation": "trading.min_liquidation",
	"headless":        "ui.headless",
	"log-level":       "log.level",
	"metrics-addr":    "metrics.addr",
	"journal":         "journal.path",
	"webhook-url":     "notifier.webhook_url",
}

// Load reads configuration from defaults, an optional file at path, the
// environment (after loading .env if present) and flags, in increasing
// order of precedence.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config error: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func (c *Config) validate() error {
	if err := validateURL(c.Feed.URL, "ws"); err != nil {
		return fmt.Errorf("feed.url: %w", err)
	}
	if err := validateURL(c.Prices.URL, "http"); err != nil {
		return fmt.Errorf("prices.url: %w", err)
	}
	if c.Notifier.WebhookURL != "" {
		if err := validateURL(c.Notifier.WebhookURL, "https"); err != nil {
			return fmt.Errorf("notifier.webhook_url must use HTTPS: %w", err)
		}
	}
	if err := c.validateNumericParams(); err != nil {
		return err
	}
	if _, err := ledger.ParseReentryPolicy(c.Trading.ReentryPolicy); err != nil {
		return fmt.Errorf("trading.reentry_policy: %w", err)
	}
	if _, err := c.DeliveryWindow(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return nil
}

func (c *Config) validateNumericParams() error {
	positiveDurations := []struct {
		name string
		d    time.Duration
	}{
		{"feed.reconnect_delay", c.Feed.ReconnectDelay},
		{"feed.read_timeout", c.Feed.ReadTimeout},
		{"prices.interval", c.Prices.Interval},
		{"prices.timeout", c.Prices.Timeout},
		{"alerts.interval", c.Alerts.Interval},
		{"notifier.timeout", c.Notifier.Timeout},
		{"ui.refresh", c.UI.Refresh},
	}
	for _, p := range positiveDurations {
		if p.d <= 0 {
			return fmt.Errorf("invalid %s: must be positive, got %s", p.name, p.d)
		}
	}

	if c.Trading.StartingBalance <= 0 {
		return errors.New("invalid trading.starting_balance: must be positive")
	}
	if c.Trading.TradeSize <= 0 {
		return errors.New("invalid trading.trade_size: must be positive")
	}
	if c.Trading.MaxTracked <= 0 {
		return errors.New("invalid trading.max_tracked: must be positive")
	}
	if c.Trading.StopLossPct <= 0 || c.Trading.StopLossPct >= 100 {
		return errors.New("invalid trading.stop_loss_pct: must be between 0 and 100")
	}
	if c.Trading.TakeProfitPct <= 0 {
		return errors.New("invalid trading.take_profit_pct: must be positive")
	}
	if c.Trading.MinLiquidation < 0 {
		return errors.New("invalid trading.min_liquidation: must not be negative")
	}
	if c.Alerts.Threshold < 0 {
		return errors.New("invalid alerts.threshold: must not be negative")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return fmt.Errorf("invalid URL %q: expected %s scheme", rawURL, protocol)
	}
	return nil
}
