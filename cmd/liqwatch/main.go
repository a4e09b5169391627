// cmd/liqwatch/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/domingochavezspecops/TradingScripts/internal/bot"
	"github.com/domingochavezspecops/TradingScripts/internal/config"
	"github.com/domingochavezspecops/TradingScripts/internal/logger"
	"github.com/domingochavezspecops/TradingScripts/internal/ui"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "liqwatch",
		Short: "Watch exchange liquidations, alert on bursts and paper-trade them",
		Long: `liqwatch listens to the exchange forced-liquidation stream, follows each
qualifying liquidation with a simulated position guarded by stop-loss and
take-profit levels, and sends an alert when a symbol's liquidations within
the aggregation window cross the configured threshold.

Settings come from defaults, an optional config file, LIQWATCH_* environment
variables (a .env file is loaded first) and flags, in that order.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, cmd.Flags())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "path to config file (YAML, JSON or TOML)")
	flags.Float64("min-liquidation", 0, "minimum liquidation value in USD (asked for at startup when unset)")
	flags.Bool("headless", false, "log periodic status lines instead of drawing the dashboard")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9102")
	flags.String("journal", "", "append engine events to this CSV file")
	flags.String("webhook-url", "", "Discord webhook URL for alerts")

	return cmd
}

func run(ctx context.Context, configPath string, flags *pflag.FlagSet) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath, flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()

	runner, err := bot.NewRunner(cfg, log.WithComponent("liqwatch"))
	if err != nil {
		log.Error("Failed to initialize monitor", zap.Error(err))
		return err
	}
	defer func() {
		if err := runner.Shutdown(context.Background()); err != nil {
			log.Warn("Shutdown finished with errors", zap.Error(err))
		}
	}()

	if cfg.UI.Headless {
		if cfg.Trading.MinLiquidation <= 0 {
			log.Warn("No minimum liquidation value set, every event will be traded")
		}
		return runner.Run(ctx)
	}

	dashLog := log.WithOperation("dashboard")
	prompt := cfg.PromptForMinimum()
	model := ui.NewModel(runner.Engine(), runner.Journal(), ui.Options{
		Refresh: cfg.UI.Refresh,
		Prompt:  prompt,
		OnMinimum: func(v decimal.Decimal) {
			dashLog.Info("Minimum liquidation value set", zap.String("value", v.String()))
			runner.Start(ctx)
		},
		Connected: runner.Connected,
	})
	if !prompt {
		runner.Start(ctx)
	}

	program := tea.NewProgram(model, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	_, runErr := program.Run()

	// quitting the dashboard stops the workers too
	stop()
	waitErr := runner.Wait()

	// the console core is off while the dashboard owns the terminal
	printWarnings(os.Stderr, log.Recent().Recent(0))

	if runErr != nil {
		dashLog.Error("Dashboard error", zap.Error(runErr))
		return runErr
	}
	return waitErr
}

func printWarnings(w io.Writer, entries []logger.LogEntry) {
	for _, e := range entries {
		if e.Level != "WARN" && e.Level != "ERROR" {
			continue
		}
		fmt.Fprintf(w, "%s %-5s %s\n", e.Timestamp.Format("15:04:05"), e.Level, e.Message)
	}
}
