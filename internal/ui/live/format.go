package live

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// fmtInt converts an int to string.
func fmtInt(value int) string {
	return strconv.Itoa(value)
}

// formatRate renders a messages-per-second figure.
func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', 3, 64)
}

// formatTarget labels a row.
func formatTarget(row Row) string {
	if row.Kind == RowAccount {
		return "(account)"
	}
	return row.Target
}

// formatStatus renders the row status column.
func formatStatus(row Row, noColor bool) string {
	switch {
	case !row.Success:
		return stylize(truncate(row.Message, 48), noColor, lipgloss.Color("196"))
	case row.Matched == 0:
		return stylize("idle", noColor, lipgloss.Color("244"))
	default:
		return stylize("active", noColor, lipgloss.Color("42"))
	}
}

// formatAge renders how long ago a row was refreshed.
func formatAge(row Row, now time.Time) string {
	if row.UpdatedAt.IsZero() {
		return "-"
	}
	age := now.Sub(row.UpdatedAt)
	if age < 0 {
		age = 0
	}
	return formatDuration(age)
}

// formatDuration renders durations with sub-second precision when short.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
	}
	return d.Round(100 * time.Millisecond).String()
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit-3] + "..."
}
