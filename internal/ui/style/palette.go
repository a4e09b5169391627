// internal/ui/style/palette.go
package style

import "github.com/charmbracelet/lipgloss"

var (
	Cyan    = lipgloss.Color("#00E5FF") // highlight
	Magenta = lipgloss.Color("#FF1B6B") // accent
	Yellow  = lipgloss.Color("#FFB500") // warnings
	Green   = lipgloss.Color("#2AFFAA") // LONG, positive PnL
	Red     = lipgloss.Color("#FF5555") // SHORT, negative PnL
	Blue    = lipgloss.Color("#3B82F6") // info

	Base03 = lipgloss.Color("#1B1D23") // background
	Base01 = lipgloss.Color("#6C7280") // muted text
	Base2  = lipgloss.Color("#ECEFF4") // primary text
	Base1  = lipgloss.Color("#B4BCC8") // secondary text
)

// Palette provides centralized color management.
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color
	Info      lipgloss.Color

	Background    lipgloss.Color
	Text          lipgloss.Color
	TextMuted     lipgloss.Color
	TextSecondary lipgloss.Color

	Long  lipgloss.Color
	Short lipgloss.Color
}

// DefaultPalette returns the default color palette.
func DefaultPalette() Palette {
	return Palette{
		Primary:   Cyan,
		Secondary: Magenta,
		Success:   Green,
		Error:     Red,
		Warning:   Yellow,
		Info:      Blue,

		Background:    Base03,
		Text:          Base2,
		TextMuted:     Base01,
		TextSecondary: Base1,

		Long:  Green,
		Short: Red,
	}
}

// Styles are the dashboard text styles derived from a palette.
type Styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Muted    lipgloss.Style
	Positive lipgloss.Style
	Negative lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Panel    lipgloss.Style
}

// NewStyles builds dashboard styles from p.
func NewStyles(p Palette) Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Foreground(p.Primary).Bold(true),
		Label:    lipgloss.NewStyle().Foreground(p.TextSecondary),
		Value:    lipgloss.NewStyle().Foreground(p.Text).Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(p.TextMuted),
		Positive: lipgloss.NewStyle().Foreground(p.Success),
		Negative: lipgloss.NewStyle().Foreground(p.Error),
		Warning:  lipgloss.NewStyle().Foreground(p.Warning),
		Error:    lipgloss.NewStyle().Foreground(p.Error).Bold(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.TextMuted).
			Padding(0, 1),
	}
}
