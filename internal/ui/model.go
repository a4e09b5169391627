// internal/ui/model.go
package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/domingochavezspecops/TradingScripts/internal/journal"
	"github.com/domingochavezspecops/TradingScripts/internal/monitor"
	"github.com/domingochavezspecops/TradingScripts/internal/ui/style"
	"github.com/shopspring/decimal"
)

const (
	DefaultRefresh       = time.Second
	DefaultActivityLines = 8
)

// Source is the engine state the dashboard reads. *monitor.Engine
// satisfies it.
type Source interface {
	Snapshot() monitor.Snapshot
	SetMinLiquidation(v decimal.Decimal)
}

// Activity supplies recent journal entries. *journal.Journal satisfies it.
type Activity interface {
	Recent(limit int) []journal.Entry
}

// Options configures a Model.
type Options struct {
	Refresh       time.Duration
	ActivityLines int

	// Prompt asks for the minimum liquidation value before showing the
	// dashboard.
	Prompt bool

	// OnMinimum is called once with the accepted prompt value.
	OnMinimum func(decimal.Decimal)

	// Connected reports the feed connection state.
	Connected func() bool
}

type tickMsg time.Time

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the bubbletea model for the prompt and the live dashboard.
type Model struct {
	source   Source
	activity Activity
	opts     Options
	keys     KeyMap
	palette  style.Palette
	styles   style.Styles

	input     textinput.Model
	prompting bool
	promptErr string

	snapshot monitor.Snapshot
	width    int
	height   int
}

// NewModel creates the model. activity may be nil.
func NewModel(source Source, activity Activity, opts Options) *Model {
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefresh
	}
	if opts.ActivityLines <= 0 {
		opts.ActivityLines = DefaultActivityLines
	}

	palette := style.DefaultPalette()
	input := textinput.New()
	input.Placeholder = "e.g. 10000"
	input.Prompt = "$ "
	input.CharLimit = 24
	input.Width = 24
	input.Focus()

	m := &Model{
		source:    source,
		activity:  activity,
		opts:      opts,
		keys:      DefaultKeyMap(),
		palette:   palette,
		styles:    style.NewStyles(palette),
		input:     input,
		prompting: opts.Prompt,
	}
	if !m.prompting {
		m.snapshot = source.Snapshot()
	}
	return m
}

// Prompting reports whether the model is still waiting for input.
func (m *Model) Prompting() bool {
	return m.prompting
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.prompting {
		return textinput.Blink
	}
	return tick(m.opts.Refresh)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		if m.prompting {
			return m.updatePrompt(msg)
		}
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		if m.prompting {
			return m, nil
		}
		m.snapshot = m.source.Snapshot()
		return m, tick(m.opts.Refresh)
	}

	if m.prompting {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Submit) {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	v, err := ParseMinimum(m.input.Value())
	if err != nil {
		m.promptErr = "Invalid input: " + err.Error() + ". Please enter a positive number."
		m.input.SetValue("")
		return m, nil
	}

	m.prompting = false
	m.promptErr = ""
	m.input.Blur()
	m.source.SetMinLiquidation(v)
	if m.opts.OnMinimum != nil {
		m.opts.OnMinimum(v)
	}
	m.snapshot = m.source.Snapshot()
	return m, tick(m.opts.Refresh)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.prompting {
		return m.promptView()
	}
	return m.dashboardView()
}

func (m *Model) promptView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Liquidation Monitor"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Label.Render("Enter the minimum liquidation value to track (USD):"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.promptErr != "" {
		b.WriteString(m.styles.Error.Render(m.promptErr))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("enter: start monitoring • ctrl+c: quit"))
	return b.String()
}

func (m *Model) dashboardView() string {
	connected := false
	if m.opts.Connected != nil {
		connected = m.opts.Connected()
	}

	var recent []journal.Entry
	if m.activity != nil {
		recent = m.activity.Recent(m.opts.ActivityLines)
	}

	sections := []string{
		Header(m.snapshot, connected, m.styles),
		Table(m.snapshot, m.palette).View(),
		Footer(m.snapshot, m.styles),
		m.styles.Panel.Render(
			m.styles.Label.Render("Recent activity") + "\n" + ActivityView(recent, m.styles)),
		m.styles.Muted.Render("q: quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
