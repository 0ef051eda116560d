package live

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the watch header line.
func renderHeader(state State, now time.Time, noColor bool) string {
	line := "Watching " + state.Server
	if state.Window != "" {
		line += " | Window: " + state.Window
	}
	if !state.StartedAt.IsZero() {
		line += " | Elapsed: " + now.Sub(state.StartedAt).Round(time.Second).String()
	}
	return stylize(line, noColor, lipgloss.Color("33"))
}

// renderSummary renders the poll counters line.
func renderSummary(state State, noColor bool) string {
	counts := state.Counts
	line := "Polls: " + fmtInt(state.Polls) +
		" Active: " + fmtInt(counts.Active) +
		" Idle: " + fmtInt(counts.Idle) +
		" Failed: " + fmtInt(counts.Failed)
	return stylize(line, noColor, lipgloss.Color("242"))
}

// renderFooter renders the last poll error and key help.
func renderFooter(state State, noColor bool) string {
	help := stylize("q to quit", noColor, lipgloss.Color("240"))
	if state.LastError == "" {
		return help
	}
	return stylize("Last error: "+state.LastError, noColor, lipgloss.Color("196")) + "\n" + help
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

// WritePlain prints the state as a fixed-width table for non-TTY output.
func WritePlain(w io.Writer, state State, now time.Time) error {
	var b strings.Builder
	b.WriteString(renderHeader(state, now, true))
	b.WriteByte('\n')
	b.WriteString(renderSummary(state, true))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%-18s %10s %10s %8s  %s\n", "TARGET", "RATE/S", "PEAK/S", "MATCHED", "STATUS")
	for _, row := range state.Rows {
		fmt.Fprintf(&b, "%-18s %10s %10s %8d  %s\n",
			formatTarget(row), formatRate(row.Rate), formatRate(row.Peak), row.Matched, formatStatus(row, true))
	}
	if state.LastError != "" {
		b.WriteString("Last error: " + state.LastError + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
