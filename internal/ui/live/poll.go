package live

import (
	"context"

	"smsgate/pkg/smsgate"
)

// RateSource is the subset of smsgate.Gate the watch view polls.
type RateSource interface {
	Rate(ctx context.Context, query smsgate.RateQuery) (smsgate.RateResult, error)
	AccountRate(ctx context.Context, fromDate, toDate string) (smsgate.RateResult, error)
}

// Targets lists what one poll round queries.
type Targets struct {
	Numbers  []string
	FromDate string
	ToDate   string
}

// Poll queries the account rate followed by each number in order.
func Poll(ctx context.Context, src RateSource, targets Targets) []Observation {
	out := make([]Observation, 0, len(targets.Numbers)+1)
	res, err := src.AccountRate(ctx, targets.FromDate, targets.ToDate)
	out = append(out, observe(RowAccount, "account", res, err))
	for _, number := range targets.Numbers {
		res, err := src.Rate(ctx, smsgate.RateQuery{
			PhoneNumber: number,
			FromDate:    targets.FromDate,
			ToDate:      targets.ToDate,
		})
		out = append(out, observe(RowNumber, number, res, err))
	}
	return out
}

func observe(kind RowKind, target string, res smsgate.RateResult, err error) Observation {
	return Observation{
		Kind:    kind,
		Target:  target,
		Rate:    res.Rate,
		Matched: res.Matched,
		Success: res.Success,
		Message: res.Message,
		Err:     err,
	}
}
