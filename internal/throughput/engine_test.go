package throughput

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"cdr.dev/slog/v3/sloggers/slogtest"

	"smsgate/internal/usage"
	"smsgate/pkg/smsgate"
)

func at(s string) time.Time {
	v, ok := ParseBound(s, time.Local)
	if !ok {
		panic("bad fixture time " + s)
	}
	return v
}

func newEngine(t *testing.T, store *usage.Store) *Engine {
	t.Helper()
	engine, err := New(Config{
		Store:  store,
		Logger: slogtest.Make(t, &slogtest.Options{IgnoreErrors: true}),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func expectRate(t *testing.T, res smsgate.RateResult, matched int, rate float64) {
	t.Helper()
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if res.Matched != matched {
		t.Fatalf("expected %d matched, got %d", matched, res.Matched)
	}
	if math.Abs(res.Rate-rate) > 1e-9 {
		t.Fatalf("expected rate %v, got %v", rate, res.Rate)
	}
}

func TestParseBound(t *testing.T) {
	v, ok := ParseBound("2025-02-10", time.Local)
	if !ok || !v.Equal(time.Date(2025, 2, 10, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("unexpected date-only bound %v ok=%v", v, ok)
	}

	v, ok = ParseBound(" 2025-02-10 13:04:05 ", time.Local)
	if !ok || !v.Equal(time.Date(2025, 2, 10, 13, 4, 5, 0, time.Local)) {
		t.Fatalf("unexpected date-time bound %v ok=%v", v, ok)
	}

	for _, bad := range []string{"", "yesterday", "2025/02/10", "2025-02-10T13:04:05Z", "2025-13-01"} {
		if _, ok := ParseBound(bad, time.Local); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestRate_EmptyStore(t *testing.T) {
	engine := newEngine(t, usage.New())
	ctx := context.Background()

	res := engine.Rate(ctx, smsgate.RateQuery{PhoneNumber: "12345"})
	if !res.Success || res.Rate != 0 || res.Message != smsgate.MsgNoMessages {
		t.Fatalf("unexpected empty-store rate %+v", res)
	}

	// Empty store wins over an invalid number.
	res = engine.Rate(ctx, smsgate.RateQuery{PhoneNumber: "abc"})
	if !res.Success {
		t.Fatalf("expected success on empty store, got %+v", res)
	}

	res = engine.AccountRate(ctx, "", "")
	if !res.Success || res.Message != smsgate.MsgNoMessages {
		t.Fatalf("unexpected empty-store account rate %+v", res)
	}
}

func TestRate_WindowedNumberAndSwappedBounds(t *testing.T) {
	store := usage.New()
	store.AppendAndIncrement("12345", at("2025-02-11 10:00:00"))
	store.AppendAndIncrement("12345", at("2025-02-11 10:00:10"))
	store.AppendAndIncrement("12345", at("2025-02-11 10:00:20"))
	store.AppendAndIncrement("23456", at("2025-02-12 08:00:00"))
	engine := newEngine(t, store)
	ctx := context.Background()

	res := engine.Rate(ctx, smsgate.RateQuery{PhoneNumber: "12345", FromDate: "2025-02-10", ToDate: "2025-02-13"})
	expectRate(t, res, 3, 3.0/20.0)
	if res.Message != smsgate.MsgRateComputed || res.Window != smsgate.WindowRange {
		t.Fatalf("unexpected message or window %+v", res)
	}

	res = engine.Rate(ctx, smsgate.RateQuery{PhoneNumber: "12345", FromDate: "2025-02-13", ToDate: "2025-02-10"})
	if res.Success || res.Rate != 0 || res.Message != smsgate.MsgFromAfterTo {
		t.Fatalf("expected inverted window failure, got %+v", res)
	}
}

func TestRate_InclusiveBounds(t *testing.T) {
	store := usage.New()
	store.AppendAndIncrement("12345", at("2025-02-11 10:00:00"))
	store.AppendAndIncrement("12345", at("2025-02-11 10:00:30"))
	store.AppendAndIncrement("12345", at("2025-02-11 10:01:00"))
	engine := newEngine(t, store)

	res := engine.Rate(context.Background(), smsgate.RateQuery{
		PhoneNumber: "12345",
		FromDate:    "2025-02-11 10:00:00",
		ToDate:      "2025-02-11 10:00:30",
	})
	expectRate(t, res, 2, 2.0/30.0)
}

func TestRate_SingleEventFloorsElapsed(t *testing.T) {
	store := usage.New()
	stamp := at("2025-02-11 10:00:00")
	store.AppendAndIncrement("12345", stamp)
	engine := newEngine(t, store)

	expectRate(t, engine.Rate(context.Background(), smsgate.RateQuery{PhoneNumber: "12345"}), 1, 1)

	// Coinciding timestamps also floor to one second.
	store.AppendAndIncrement("12345", stamp)
	store.AppendAndIncrement("12345", stamp)
	expectRate(t, engine.Rate(context.Background(), smsgate.RateQuery{PhoneNumber: "12345"}), 3, 3)
}

func TestRate_UnparseableBoundIsUnrestricted(t *testing.T) {
	store := usage.New()
	store.AppendAndIncrement("12345", at("2025-01-01 00:00:00"))
	store.AppendAndIncrement("12345", at("2025-01-01 00:00:04"))
	engine := newEngine(t, store)
	ctx := context.Background()

	for _, q := range []smsgate.RateQuery{
		{PhoneNumber: "12345", FromDate: "2025-06-01"},
		{PhoneNumber: "12345", FromDate: "2025-06-01", ToDate: "garbage"},
		{PhoneNumber: "12345", FromDate: "", ToDate: "2025-06-01"},
	} {
		res := engine.Rate(ctx, q)
		expectRate(t, res, 2, 0.5)
		if res.Window != smsgate.WindowUnrestricted {
			t.Fatalf("%+v: expected unrestricted window, got %s", q, res.Window)
		}
	}
}

func TestRate_InvalidNumberAndNoMatches(t *testing.T) {
	store := usage.New()
	store.AppendAndIncrement("12345", at("2025-02-11 10:00:00"))
	engine := newEngine(t, store)
	ctx := context.Background()

	res := engine.Rate(ctx, smsgate.RateQuery{PhoneNumber: "12a45"})
	if res.Success || res.Message != smsgate.MsgInvalidNumber || res.Rate != 0 {
		t.Fatalf("expected invalid number failure, got %+v", res)
	}

	res = engine.Rate(ctx, smsgate.RateQuery{PhoneNumber: "99999"})
	if !res.Success || res.Message != smsgate.MsgNoMatches {
		t.Fatalf("expected no matches for unknown number, got %+v", res)
	}

	res = engine.Rate(ctx, smsgate.RateQuery{FromDate: "2024-01-01", ToDate: "2024-12-31"})
	if !res.Success || res.Message != smsgate.MsgNoMatches || res.Rate != 0 {
		t.Fatalf("expected no matches outside the window, got %+v", res)
	}
}

func TestAccountRate_AggregatesEveryNumber(t *testing.T) {
	store := usage.New()
	store.AppendAndIncrement("12345", at("2025-02-11 10:00:00"))
	store.AppendAndIncrement("23456", at("2025-02-11 10:00:05"))
	store.AppendAndIncrement("67890", at("2025-02-11 10:00:10"))
	store.AppendAndIncrement("67890", at("2025-03-01 00:00:00"))
	engine := newEngine(t, store)
	ctx := context.Background()

	expectRate(t, engine.AccountRate(ctx, "2025-02-11", "2025-02-12"), 3, 0.3)

	all := engine.Rate(ctx, smsgate.RateQuery{})
	if all.Matched != 4 {
		t.Fatalf("expected 4 matched across the account, got %d", all.Matched)
	}
	if got := engine.AccountRate(ctx, "", "").Matched; got != all.Matched {
		t.Fatalf("account rate matched %d, rate without number matched %d", got, all.Matched)
	}
}

func TestRate_DoesNotMutateStore(t *testing.T) {
	store := usage.New()
	store.AppendAndIncrement("12345", at("2025-02-11 10:00:00"))
	engine := newEngine(t, store)
	engine.Rate(context.Background(), smsgate.RateQuery{PhoneNumber: "12345"})
	engine.AccountRate(context.Background(), "2025-02-11", "2025-02-12")
	if store.Len() != 1 || store.TotalCount() != 1 {
		t.Fatalf("store changed: %d numbers, %d messages", store.Len(), store.TotalCount())
	}
}

func TestRate_WideningWindowNeverLosesMatches(t *testing.T) {
	const layout = "2006-01-02 15:04:05"
	rng := rand.New(rand.NewSource(7))
	base := at("2025-02-11 00:00:00")
	store := usage.New()
	numbers := []string{"12345", "23456"}
	var stamps []time.Time
	for i := 0; i < 200; i++ {
		stamp := base.Add(time.Duration(rng.Intn(86400)) * time.Second)
		stamps = append(stamps, stamp)
		store.AppendAndIncrement(numbers[i%len(numbers)], stamp)
	}
	engine := newEngine(t, store)
	ctx := context.Background()

	within := func(from, to time.Time) int {
		n := 0
		for _, s := range stamps {
			if !s.Before(from) && !s.After(to) {
				n++
			}
		}
		return n
	}

	from := base.Add(12 * time.Hour)
	to := from
	prev := -1
	for step := 0; step < 60; step++ {
		res := engine.AccountRate(ctx, from.Format(layout), to.Format(layout))
		if !res.Success {
			t.Fatalf("step %d: %s", step, res.Message)
		}
		if want := within(from, to); res.Matched != want {
			t.Fatalf("step %d: expected %d matched, got %d", step, want, res.Matched)
		}
		if res.Matched < prev {
			t.Fatalf("step %d: matched dropped from %d to %d", step, prev, res.Matched)
		}
		prev = res.Matched

		from = from.Add(-time.Duration(rng.Intn(1800)) * time.Second)
		to = to.Add(time.Duration(rng.Intn(1800)) * time.Second)
	}
	if prev == 0 {
		t.Fatalf("expected the widest window to match messages")
	}

	// The per-number view widens the same way.
	prev = -1
	for _, window := range [][2]string{
		{"2025-02-11 11:00:00", "2025-02-11 12:00:00"},
		{"2025-02-11 08:00:00", "2025-02-11 12:00:00"},
		{"2025-02-11 08:00:00", "2025-02-11 20:00:00"},
		{"2025-02-11", "2025-02-12"},
		{"", ""},
	} {
		res := engine.Rate(ctx, smsgate.RateQuery{PhoneNumber: "12345", FromDate: window[0], ToDate: window[1]})
		if !res.Success {
			t.Fatalf("window %v: %s", window, res.Message)
		}
		if res.Matched < prev {
			t.Fatalf("window %v: matched dropped from %d to %d", window, prev, res.Matched)
		}
		prev = res.Matched
	}
	if prev != 100 {
		t.Fatalf("expected all 100 messages of 12345 in the open window, got %d", prev)
	}
}
