package live

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model renders a live rate dashboard using Bubble Tea.
type Model struct {
	ctx      context.Context
	source   RateSource
	targets  Targets
	state    State
	table    table.Model
	interval time.Duration
	now      time.Time
	noColor  bool
}

// Options configures the live UI model.
type Options struct {
	Server   string
	Targets  Targets
	Interval time.Duration
	NoColor  bool
}

// NewModel constructs a watch model polling src.
func NewModel(ctx context.Context, src RateSource, opts Options) Model {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	t := table.New(
		table.WithColumns(defaultColumns()),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
	)
	t.SetStyles(tableStyles(opts.NoColor))
	return Model{
		ctx:      ctx,
		source:   src,
		targets:  opts.Targets,
		state:    State{Server: opts.Server, Window: describeWindow(opts.Targets)},
		table:    t,
		interval: interval,
		now:      time.Now(),
		noColor:  opts.NoColor,
	}
}

// State returns the current watch state.
func (m Model) State() State {
	return m.state
}

// Init issues the first poll.
func (m Model) Init() tea.Cmd {
	return poll(m.ctx, m.source, m.targets)
}

// Update consumes poll results, timer ticks and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		switch typed.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.table.SetWidth(typed.Width)
		m.table.SetHeight(max(typed.Height-5, 1))
		m.table.SetColumns(columnsForWidth(typed.Width))
		return m, nil
	case pollMsg:
		m.now = typed.at
		m.state = Reduce(m.state, typed.at, typed.observations)
		m.table.SetRows(rowsForState(m.state, m.now, m.noColor))
		return m, tick(m.interval)
	case tickMsg:
		m.now = time.Time(typed)
		if m.ctx.Err() != nil {
			return m, tea.Quit
		}
		return m, poll(m.ctx, m.source, m.targets)
	}
	return m, nil
}

// View renders the live UI.
func (m Model) View() string {
	header := renderHeader(m.state, m.now, m.noColor)
	summary := renderSummary(m.state, m.noColor)
	footer := renderFooter(m.state, m.noColor)
	return lipgloss.JoinVertical(lipgloss.Left, header, summary, m.table.View(), footer)
}

// pollMsg carries one completed poll round.
type pollMsg struct {
	at           time.Time
	observations []Observation
}

// tickMsg carries a clock tick for updates.
type tickMsg time.Time

func poll(ctx context.Context, src RateSource, targets Targets) tea.Cmd {
	return func() tea.Msg {
		observations := Poll(ctx, src, targets)
		return pollMsg{at: time.Now(), observations: observations}
	}
}

// tick emits a periodic tick message.
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func describeWindow(targets Targets) string {
	if targets.FromDate == "" && targets.ToDate == "" {
		return ""
	}
	return targets.FromDate + " .. " + targets.ToDate
}
