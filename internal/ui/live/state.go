package live

import "time"

// RowKind distinguishes the account row from per-number rows.
type RowKind string

const (
	RowAccount RowKind = "account"
	RowNumber  RowKind = "number"
)

// Row holds the latest rate observation for one watch target.
type Row struct {
	Kind      RowKind
	Target    string
	Rate      float64
	Peak      float64
	Matched   int
	Success   bool
	Message   string
	UpdatedAt time.Time
}

// Observation is one polled rate result for a target.
type Observation struct {
	Kind    RowKind
	Target  string
	Rate    float64
	Matched int
	Success bool
	Message string
	Err     error
}

// Counts aggregates row outcomes from the latest poll.
type Counts struct {
	Active int
	Idle   int
	Failed int
}

// State captures the watch view.
type State struct {
	Server    string
	Window    string
	StartedAt time.Time
	LastPoll  time.Time
	Polls     int
	Rows      []Row
	Counts    Counts
	LastError string
}
