package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/domingochavezspecops/TradingScripts/internal/aggregate"
	"github.com/domingochavezspecops/TradingScripts/internal/domain"
	"github.com/domingochavezspecops/TradingScripts/internal/events"
	"github.com/domingochavezspecops/TradingScripts/internal/journal"
	"github.com/domingochavezspecops/TradingScripts/internal/ledger"
	"github.com/domingochavezspecops/TradingScripts/internal/money"
	"github.com/domingochavezspecops/TradingScripts/internal/monitor"
	"github.com/domingochavezspecops/TradingScripts/internal/ui/component"
	"github.com/domingochavezspecops/TradingScripts/internal/ui/style"
	"github.com/shopspring/decimal"
)

const notAvailable = "N/A"

// Dashboard columns.
const (
	ColCoin = iota
	ColSide
	ColLastLiq
	ColTotalLiq
	ColChange
	ColPosition
	ColPnL
	ColEntry
	ColStopLoss
	ColTakeProfit
	ColLastResult
)

var columns = []component.TableColumn{
	{Header: "Coin", Width: 14, Align: lipgloss.Left},
	{Header: "Side", Width: 7, Align: lipgloss.Left},
	{Header: "Last Liq($)", Width: 15, Align: lipgloss.Right},
	{Header: "Total Liq($)", Width: 16, Align: lipgloss.Right},
	{Header: "24hr Change(%)", Width: 16, Align: lipgloss.Right},
	{Header: "Position($)", Width: 13, Align: lipgloss.Right},
	{Header: "PNL($)", Width: 11, Align: lipgloss.Right},
	{Header: "Entry", Width: 14, Align: lipgloss.Right},
	{Header: "SL", Width: 14, Align: lipgloss.Right},
	{Header: "TP", Width: 14, Align: lipgloss.Right},
	{Header: "Last Result", Width: 28, Align: lipgloss.Left},
}

// Row renders one tracked symbol as dashboard cells.
func Row(rec ledger.Record) []string {
	pos := rec.Position
	row := make([]string, len(columns))

	row[ColCoin] = pos.Symbol
	row[ColSide] = notAvailable
	row[ColEntry] = notAvailable
	row[ColStopLoss] = notAvailable
	row[ColTakeProfit] = notAvailable
	if pos.IsOpen() {
		row[ColSide] = string(pos.Direction)
		row[ColEntry] = formatPrice(pos.EntryPrice)
		row[ColStopLoss] = formatPrice(pos.StopLossPrice)
		row[ColTakeProfit] = formatPrice(pos.TakeProfitPrice)
	}
	row[ColLastLiq] = money.Grouped(rec.LastLiquidation, 2)
	row[ColTotalLiq] = money.Grouped(rec.TotalLiquidations, 2)
	row[ColChange] = rec.PriceChange24h.StringFixed(2)
	row[ColPosition] = money.Grouped(pos.Size, 2)
	row[ColPnL] = pos.CurrentPnL.StringFixed(2)
	row[ColLastResult] = pos.LastResult
	if row[ColLastResult] == "" {
		row[ColLastResult] = notAvailable
	}
	return row
}

func formatPrice(v decimal.Decimal) string {
	return v.Round(6).String()
}

// Table builds the position table for snap with side and sign coloring.
func Table(snap monitor.Snapshot, p style.Palette) *component.Table {
	t := component.NewTable()
	for _, c := range columns {
		t.AddColumn(c.Header, c.Width, c.Align)
	}
	t.SetEmptyText("Waiting for liquidations...")

	rows := make([][]string, len(snap.Rows))
	for i, rec := range snap.Rows {
		rows[i] = Row(rec)
	}
	t.SetRows(rows)

	long := lipgloss.NewStyle().Foreground(p.Long).Bold(true)
	short := lipgloss.NewStyle().Foreground(p.Short).Bold(true)
	for i, rec := range snap.Rows {
		switch rec.Position.Direction {
		case domain.DirectionLong:
			t.SetCellStyle(i, ColSide, long)
		case domain.DirectionShort:
			t.SetCellStyle(i, ColSide, short)
		}
		if s, ok := signStyle(rec.PriceChange24h, p); ok {
			t.SetCellStyle(i, ColChange, s)
		}
		if s, ok := signStyle(rec.Position.CurrentPnL, p); ok {
			t.SetCellStyle(i, ColPnL, s)
		}
	}
	return t
}

func signStyle(v decimal.Decimal, p style.Palette) (lipgloss.Style, bool) {
	switch v.Sign() {
	case 1:
		return lipgloss.NewStyle().Foreground(p.Success), true
	case -1:
		return lipgloss.NewStyle().Foreground(p.Error), true
	default:
		return lipgloss.Style{}, false
	}
}

// Header renders the account summary lines.
func Header(snap monitor.Snapshot, connected bool, s style.Styles) string {
	a := snap.Account
	field := func(label, value string) string {
		return s.Label.Render(label+": ") + s.Value.Render(value)
	}

	feed := s.Negative.Render("disconnected")
	if connected {
		feed = s.Positive.Render("connected")
	}

	lines := []string{
		s.Title.Render("Liquidation Monitor"),
		field("Minimum Liquidation Value", money.USD(snap.MinLiquidation)),
		strings.Join([]string{
			field("Starting Balance", money.USD(a.StartingBalance)),
			field("Current Balance", money.USD(a.Balance)),
			field("Max Drawdown %", a.MaxDrawdownPct.StringFixed(2)+"%"),
		}, "   "),
		strings.Join([]string{
			s.Label.Render("Feed: ") + feed,
			field("Events", fmt.Sprintf("%d", snap.Processed)),
			field("Tracked", fmt.Sprintf("%d/%d", len(snap.Rows), snap.Capacity)),
			field("Window", fmt.Sprintf("%s since %s",
				aggregate.FormatInterval(snap.WindowInterval),
				snap.WindowStart.Format("15:04:05"))),
		}, "   "),
	}
	return strings.Join(lines, "\n")
}

// Footer renders the realized PnL total.
func Footer(snap monitor.Snapshot, s style.Styles) string {
	pnl := snap.Account.TotalRealizedPnL
	value := s.Value.Render(money.USD(pnl))
	switch pnl.Sign() {
	case 1:
		value = s.Positive.Bold(true).Render(money.USD(pnl))
	case -1:
		value = s.Negative.Bold(true).Render(money.USD(pnl))
	}
	return s.Label.Render("Total PNL: ") + value
}

// ActivityView renders the latest journal entries, newest first.
func ActivityView(entries []journal.Entry, s style.Styles) string {
	if len(entries) == 0 {
		return s.Muted.Render("No activity yet")
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		line := e.String()
		switch e.Event {
		case events.AlertFired:
			line = s.Warning.Render(line)
		case events.EntryRejected, events.SymbolEvicted:
			line = s.Muted.Render(line)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
