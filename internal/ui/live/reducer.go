package live

import (
	"time"
)

// Reduce folds one poll round into the watch state. Rows keep their first-seen
// order and remember the highest rate observed.
func Reduce(state State, at time.Time, observations []Observation) State {
	if state.StartedAt.IsZero() {
		state.StartedAt = at
	}
	state.LastPoll = at
	state.Polls++
	state.LastError = ""

	for _, obs := range observations {
		idx := rowIndex(state.Rows, obs.Kind, obs.Target)
		if idx < 0 {
			state.Rows = append(state.Rows, Row{Kind: obs.Kind, Target: obs.Target})
			idx = len(state.Rows) - 1
		}
		state.Rows[idx] = applyObservation(state.Rows[idx], obs, at)
		if obs.Err != nil {
			state.LastError = obs.Target + ": " + obs.Err.Error()
		}
	}
	state.Counts = countRows(state.Rows)
	return state
}

func applyObservation(row Row, obs Observation, at time.Time) Row {
	row.UpdatedAt = at
	if obs.Err != nil {
		row.Success = false
		row.Message = obs.Err.Error()
		return row
	}
	row.Rate = obs.Rate
	row.Matched = obs.Matched
	row.Success = obs.Success
	row.Message = obs.Message
	if obs.Rate > row.Peak {
		row.Peak = obs.Rate
	}
	return row
}

func rowIndex(rows []Row, kind RowKind, target string) int {
	for i, row := range rows {
		if row.Kind == kind && row.Target == target {
			return i
		}
	}
	return -1
}

func countRows(rows []Row) Counts {
	var counts Counts
	for _, row := range rows {
		switch {
		case !row.Success:
			counts.Failed++
		case row.Matched > 0:
			counts.Active++
		default:
			counts.Idle++
		}
	}
	return counts
}
