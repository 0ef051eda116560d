package live

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// defaultColumns returns the watch table layout.
func defaultColumns() []table.Column {
	return columnsForWidth(0)
}

// columnsForWidth widens the status column to fill the terminal.
func columnsForWidth(width int) []table.Column {
	columns := []table.Column{
		{Title: "Target", Width: 18},
		{Title: "Rate/s", Width: 10},
		{Title: "Peak/s", Width: 10},
		{Title: "Matched", Width: 8},
		{Title: "Age", Width: 8},
		{Title: "Status", Width: 24},
	}
	used := 0
	for _, col := range columns[:len(columns)-1] {
		used += col.Width + 2
	}
	if rest := width - used - 2; rest > columns[len(columns)-1].Width {
		columns[len(columns)-1].Width = rest
	}
	return columns
}

// tableStyles returns table styles for the UI.
func tableStyles(noColor bool) table.Styles {
	if noColor {
		return table.DefaultStyles()
	}
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	return styles
}

// rowsForState converts UI state into table rows.
func rowsForState(state State, now time.Time, noColor bool) []table.Row {
	rows := make([]table.Row, 0, len(state.Rows))
	for _, row := range state.Rows {
		rows = append(rows, table.Row{
			formatTarget(row),
			formatRate(row.Rate),
			formatRate(row.Peak),
			fmtInt(row.Matched),
			formatAge(row, now),
			formatStatus(row, noColor),
		})
	}
	return rows
}
