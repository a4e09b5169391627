// internal/ui/component/table.go
package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/domingochavezspecops/TradingScripts/internal/ui/style"
)

// TableColumn is a column configuration.
type TableColumn struct {
	Header string
	Width  int
	Align  lipgloss.Position
}

// TableRow is a row of cells. CellStyles overrides Style for single cells.
type TableRow struct {
	Data       []string
	Style      lipgloss.Style
	CellStyles map[int]lipgloss.Style
}

// Table is a fixed-column data table.
type Table struct {
	columns []TableColumn
	rows    []TableRow

	headerStyle lipgloss.Style
	rowStyle    lipgloss.Style
	borderStyle lipgloss.Style

	showBorder bool
	emptyText  string
}

// NewTable creates an empty table.
func NewTable() *Table {
	palette := style.DefaultPalette()

	return &Table{
		headerStyle: lipgloss.NewStyle().
			Foreground(palette.Secondary).
			Bold(true).
			Padding(0, 1),

		rowStyle: lipgloss.NewStyle().
			Foreground(palette.Text).
			Padding(0, 1),

		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.TextMuted),

		showBorder: true,
	}
}

// AddColumn adds a column.
func (t *Table) AddColumn(header string, width int, align lipgloss.Position) *Table {
	t.columns = append(t.columns, TableColumn{Header: header, Width: width, Align: align})
	return t
}

// SetRows replaces all rows.
func (t *Table) SetRows(rows [][]string) *Table {
	t.rows = make([]TableRow, len(rows))
	for i, data := range rows {
		t.rows[i] = TableRow{Data: data, Style: t.rowStyle}
	}
	return t
}

// SetCellStyle overrides the foreground style of one cell.
func (t *Table) SetCellStyle(row, col int, s lipgloss.Style) *Table {
	if row < 0 || row >= len(t.rows) || col < 0 || col >= len(t.columns) {
		return t
	}
	if t.rows[row].CellStyles == nil {
		t.rows[row].CellStyles = make(map[int]lipgloss.Style)
	}
	t.rows[row].CellStyles[col] = s.Padding(0, 1)
	return t
}

// SetShowBorder enables or disables the border.
func (t *Table) SetShowBorder(show bool) *Table {
	t.showBorder = show
	return t
}

// SetEmptyText sets the line shown when there are no rows.
func (t *Table) SetEmptyText(text string) *Table {
	t.emptyText = text
	return t
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// View renders the table.
func (t *Table) View() string {
	if len(t.columns) == 0 {
		return "No columns defined"
	}

	var content strings.Builder

	for i, col := range t.columns {
		content.WriteString(renderCell(col.Header, col.Width, col.Align, t.headerStyle))
		if i < len(t.columns)-1 {
			content.WriteString("│")
		}
	}
	content.WriteString("\n")

	for i, col := range t.columns {
		content.WriteString(strings.Repeat("─", col.Width))
		if i < len(t.columns)-1 {
			content.WriteString("┼")
		}
	}

	if len(t.rows) == 0 && t.emptyText != "" {
		content.WriteString("\n")
		content.WriteString(t.rowStyle.Render(t.emptyText))
	}

	for _, row := range t.rows {
		content.WriteString("\n")
		for i, col := range t.columns {
			cell := ""
			if i < len(row.Data) {
				cell = row.Data[i]
			}
			cellStyle := row.Style
			if s, ok := row.CellStyles[i]; ok {
				cellStyle = s
			}
			content.WriteString(renderCell(cell, col.Width, col.Align, cellStyle))
			if i < len(t.columns)-1 {
				content.WriteString("│")
			}
		}
	}

	result := content.String()
	if t.showBorder {
		result = t.borderStyle.Render(result)
	}
	return result
}

// renderCell truncates content to width and applies alignment.
func renderCell(content string, width int, align lipgloss.Position, s lipgloss.Style) string {
	// two columns of padding
	inner := width - 2
	if inner > 0 && ansi.StringWidth(content) > inner {
		content = ansi.Truncate(content, inner, "…")
	}
	return s.Width(width).MaxWidth(width).Align(align).Render(content)
}
