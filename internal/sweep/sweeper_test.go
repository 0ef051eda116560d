package sweep

import (
	"context"
	"testing"
	"time"

	"cdr.dev/slog/v3/sloggers/slogtest"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"smsgate/internal/testutil"
	"smsgate/internal/usage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var start = time.Date(2025, 3, 15, 6, 0, 0, 0, time.Local)

func newSweeper(t *testing.T, store *usage.Store, clock quartz.Clock) *Sweeper {
	t.Helper()
	s, err := New(Config{
		Store:  store,
		Clock:  clock,
		Logger: slogtest.Make(t, &slogtest.Options{IgnoreErrors: true}),
	})
	require.NoError(t, err)
	return s
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(Config{Store: usage.New()})
	require.NoError(t, err)
	require.Equal(t, DefaultRetention, s.retention)
	require.Equal(t, DefaultInterval, s.interval)

	_, err = New(Config{})
	require.Error(t, err)

	_, err = New(Config{Store: usage.New(), Retention: -time.Hour})
	require.Error(t, err)
}

func TestSweepOnce_RemovesOnlyIdleNumbers(t *testing.T) {
	mClock := quartz.NewMock(t)
	mClock.Set(start)
	store := usage.New()

	store.AppendAndIncrement("11111", start.Add(-45*24*time.Hour))
	store.AppendAndIncrement("22222", start.Add(-DefaultRetention))
	store.AppendAndIncrement("33333", start.Add(-DefaultRetention+time.Second))
	// Old history but a recent send keeps the number.
	store.AppendAndIncrement("44444", start.Add(-60*24*time.Hour))
	store.AppendAndIncrement("44444", start.Add(-time.Hour))

	res := newSweeper(t, store, mClock).SweepOnce(context.Background())
	require.Equal(t, 4, res.Scanned)
	require.Equal(t, 2, res.Removed)
	require.Equal(t, start.Add(-DefaultRetention), res.Cutoff)

	require.Zero(t, store.Get("11111"))
	require.Zero(t, store.Get("22222"))
	require.Equal(t, 1, store.Get("33333"))
	require.Equal(t, 2, store.Get("44444"))
}

func TestSweepOnce_RemovedNumberStartsFresh(t *testing.T) {
	mClock := quartz.NewMock(t)
	mClock.Set(start)
	store := usage.New()
	store.AppendAndIncrement("11111", start.Add(-40*24*time.Hour))
	store.AppendAndIncrement("11111", start.Add(-35*24*time.Hour))

	newSweeper(t, store, mClock).SweepOnce(context.Background())
	require.Zero(t, store.Get("11111"))

	require.Equal(t, 1, store.AppendAndIncrement("11111", start))
}

func TestRun_SweepsOnEachTickAndStopsOnCancel(t *testing.T) {
	testCtx := testutil.Context(t, 5*time.Second)
	mClock := quartz.NewMock(t)
	mClock.Set(start)
	trap := mClock.Trap().TickerFunc("sweep")
	defer trap.Close()

	store := usage.New()
	store.AppendAndIncrement("11111", start.Add(-29*24*time.Hour))
	store.AppendAndIncrement("22222", start)
	s := newSweeper(t, store, mClock)

	ctx, cancel := context.WithCancel(testCtx)
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()
	trap.MustWait(testCtx).MustRelease(testCtx)

	// Day one: 11111 is 30 days idle, exactly at the cutoff.
	mClock.Advance(DefaultInterval).MustWait(testCtx)
	require.Zero(t, store.Get("11111"))
	require.Equal(t, 1, store.Get("22222"))

	// 22222 keeps its history until it crosses retention too.
	mClock.Advance(DefaultInterval).MustWait(testCtx)
	require.Equal(t, 1, store.Get("22222"))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-testCtx.Done():
		t.Fatalf("sweeper did not stop after cancel")
	}
}

func TestRun_CanceledBeforeFirstTick(t *testing.T) {
	testCtx := testutil.Context(t, 5*time.Second)
	store := usage.New()
	store.AppendAndIncrement("11111", time.Now().Add(-90*24*time.Hour))
	s, err := New(Config{
		Store:    store,
		Interval: time.Hour,
		Logger:   slogtest.Make(t, &slogtest.Options{IgnoreErrors: true}),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(testCtx)
	cancel()
	require.NoError(t, s.Run(ctx))
	require.Equal(t, 1, store.Get("11111"))
}
