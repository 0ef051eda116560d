package smsgate

import "context"

// Gate is the client-facing API for SMS admission control and reporting.
// Expected outcomes are reported through result values; the error return is
// reserved for transport failures.
type Gate interface {
	CanSend(ctx context.Context, phoneNumber string) (SendResult, error)
	Reset(ctx context.Context) (ResetResult, error)
	Rate(ctx context.Context, query RateQuery) (RateResult, error)
	AccountRate(ctx context.Context, fromDate, toDate string) (RateResult, error)
	Forget(ctx context.Context, phoneNumber string) (ForgetResult, error)
	Usage(ctx context.Context, phoneNumber string) (Usage, error)
}
