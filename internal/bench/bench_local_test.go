package bench

import (
	"context"
	"runtime"
	"sync"
	"testing"

	"smsgate/internal/admission"
	"smsgate/internal/throughput"
	"smsgate/internal/usage"
	"smsgate/pkg/smsgate"
)

// BenchmarkCanSend_OneNumber measures in-process admission for a single number.
func BenchmarkCanSend_OneNumber(b *testing.B) {
	adm := newBenchEngine(b, b.N+100)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if res := adm.CanSend(ctx, "15550000"); !res.Allowed {
			b.Fatalf("admission failed: %+v", res)
		}
	}
}

// BenchmarkCanSend_Parallel measures admission under contention on the store lock.
func BenchmarkCanSend_Parallel(b *testing.B) {
	adm := newBenchEngine(b, b.N+100)
	numbers := benchNumbers(runtime.GOMAXPROCS(0) * 4)
	ctx := context.Background()
	var mu sync.Mutex
	next := 0

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		mu.Lock()
		number := numbers[next%len(numbers)]
		next++
		mu.Unlock()
		for pb.Next() {
			adm.CanSend(ctx, number)
		}
	})
}

// BenchmarkRate_Windowed measures a windowed per-number rate over a long history.
func BenchmarkRate_Windowed(b *testing.B) {
	store := usage.New()
	adm, err := admission.New(admission.Config{Store: store, Limits: admission.Limits{PerNumber: 10_000, PerAccount: 10_000}})
	if err != nil {
		b.Fatalf("admission: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 5000; i++ {
		adm.CanSend(ctx, "15550000")
	}
	tp, err := throughput.New(throughput.Config{Store: store})
	if err != nil {
		b.Fatalf("throughput: %v", err)
	}
	query := smsgate.RateQuery{PhoneNumber: "15550000", FromDate: "2000-01-01", ToDate: "2999-12-31"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if res := tp.Rate(ctx, query); !res.Success {
			b.Fatalf("rate failed: %+v", res)
		}
	}
}

func newBenchEngine(b *testing.B, ceiling int) *admission.Engine {
	b.Helper()
	adm, err := admission.New(admission.Config{
		Store:  usage.New(),
		Limits: admission.Limits{PerNumber: ceiling, PerAccount: ceiling},
	})
	if err != nil {
		b.Fatalf("admission: %v", err)
	}
	return adm
}
