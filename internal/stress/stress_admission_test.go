//go:build stress

package stress

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cdr.dev/slog/v3/sloggers/slogtest"

	"smsgate/internal/admission"
	"smsgate/internal/sweep"
	"smsgate/internal/testutil"
	"smsgate/internal/throughput"
	"smsgate/internal/usage"
	"smsgate/pkg/smsgate"
)

const (
	perNumber  = 20
	perAccount = 500
)

// TestStress_Admission_RandomizedWorkload mixes admissions, resets, forgets,
// rate queries and sweeps on one store while a checker asserts the ceilings
// hold in every snapshot.
func TestStress_Admission_RandomizedWorkload(t *testing.T) {
	runWithTimeout(t, 20*time.Second, func() {
		logger := slogtest.Make(t, &slogtest.Options{IgnoreErrors: true})
		store := usage.New()
		adm, err := admission.New(admission.Config{
			Store:  store,
			Limits: admission.Limits{PerNumber: perNumber, PerAccount: perAccount},
			Logger: logger,
		})
		if err != nil {
			t.Fatalf("admission: %v", err)
		}
		tp, err := throughput.New(throughput.Config{Store: store, Logger: logger})
		if err != nil {
			t.Fatalf("throughput: %v", err)
		}
		sweeper, err := sweep.New(sweep.Config{Store: store, Retention: time.Millisecond, Logger: logger})
		if err != nil {
			t.Fatalf("sweeper: %v", err)
		}

		numbers := make([]string, 100)
		for i := range numbers {
			numbers[i] = fmt.Sprintf("1555%04d", i)
		}

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ctx := context.Background()

		var (
			wg         sync.WaitGroup
			allowed    uint64
			violations atomic.Value
		)
		fail := func(msg string) { violations.CompareAndSwap(nil, msg) }

		for i := 0; i < 64; i++ {
			wg.Add(1)
			go func(seed int64) {
				defer wg.Done()
				rng := rand.New(rand.NewSource(seed))
				for stopCtx.Err() == nil {
					number := numbers[rng.Intn(len(numbers))]
					switch roll := rng.Intn(1000); {
					case roll < 2:
						adm.Reset(ctx)
					case roll < 10:
						adm.Forget(ctx, number)
					case roll < 60:
						res := tp.Rate(ctx, smsgate.RateQuery{PhoneNumber: number})
						if res.Rate < 0 {
							fail("negative rate")
						}
					case roll < 80:
						res := tp.AccountRate(ctx, "", "")
						if res.Matched > perAccount {
							fail(fmt.Sprintf("account rate matched %d", res.Matched))
						}
					default:
						res := adm.CanSend(ctx, number)
						if res.Allowed {
							atomic.AddUint64(&allowed, 1)
						}
					}
				}
			}(int64(i + 1))
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			for stopCtx.Err() == nil {
				sweeper.SweepOnce(ctx)
				time.Sleep(5 * time.Millisecond)
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			for stopCtx.Err() == nil {
				store.View(func(r usage.Reader) {
					if total := r.Total(); total > perAccount {
						fail(fmt.Sprintf("account total %d exceeds %d", total, perAccount))
					}
					r.Each(func(number string, stamps []time.Time) {
						if len(stamps) > perNumber {
							fail(fmt.Sprintf("number %s holds %d", number, len(stamps)))
						}
					})
				})
			}
		}()

		wg.Wait()
		if v := violations.Load(); v != nil {
			t.Fatalf("ceiling violated: %v", v)
		}
		if atomic.LoadUint64(&allowed) == 0 {
			t.Fatalf("expected some admissions")
		}
	})
}

// TestStress_Admission_ExactCeilingUnderContention hammers one number and
// checks exactly the ceiling is admitted.
func TestStress_Admission_ExactCeilingUnderContention(t *testing.T) {
	runWithTimeout(t, 10*time.Second, func() {
		store := usage.New()
		adm, err := admission.New(admission.Config{
			Store:  store,
			Limits: admission.Limits{PerNumber: perNumber, PerAccount: perAccount},
		})
		if err != nil {
			t.Fatalf("admission: %v", err)
		}
		ctx := context.Background()
		var wg sync.WaitGroup
		var allowed uint64
		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					if adm.CanSend(ctx, "15550000").Allowed {
						atomic.AddUint64(&allowed, 1)
					}
				}
			}()
		}
		wg.Wait()
		if allowed != perNumber {
			t.Fatalf("expected %d admissions, got %d", perNumber, allowed)
		}
		if store.Get("15550000") != perNumber {
			t.Fatalf("expected stored count %d, got %d", perNumber, store.Get("15550000"))
		}
	})
}

func runWithTimeout(t *testing.T, timeout time.Duration, fn func()) {
	t.Helper()
	ctx := testutil.Context(t, timeout)
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatalf("test timed out after %s", timeout)
	}
}
