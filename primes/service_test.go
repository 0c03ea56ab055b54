package primes

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonwraymond/primeops/admission"
	"github.com/jonwraymond/primeops/cache"
	"github.com/jonwraymond/primeops/observe"
	"github.com/jonwraymond/primeops/sieve"
	"github.com/jonwraymond/primeops/workpool"
)

type harness struct {
	svc     *Service
	cache   *cache.Rolling
	spans   *tracetest.SpanRecorder
	logs    *bytes.Buffer
	ceiling *uint64
	stamp   time.Time
	pool    *workpool.Pool
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		spans:   tracetest.NewSpanRecorder(),
		logs:    &bytes.Buffer{},
		ceiling: new(uint64),
		stamp:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		pool:    workpool.New(workpool.Config{Size: 4}),
	}
	t.Cleanup(h.pool.Close)
	*h.ceiling = 1 << 30

	ctrl := admission.New(admission.Config{
		SafetyFraction: 1,
		Ceiling:        func() uint64 { return *h.ceiling },
	})
	h.cache = cache.NewRolling(ctrl)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(h.spans))
	mw := observe.NewMiddleware(
		observe.NewTracer(tp.Tracer("test")),
		nil,
		observe.NewLoggerWithWriter("debug", h.logs),
	)

	svc, err := NewService(Config{
		Engine:     sieve.NewEngine(h.pool),
		Cache:      h.cache,
		Middleware: mw,
		Now:        func() time.Time { return h.stamp },
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	h.svc = svc
	return h
}

// computed returns the [start, limit] bounds of every strategy run so far.
func (h *harness) computed() [][2]string {
	var out [][2]string
	for _, span := range h.spans.Ended() {
		var start, limit string
		for _, kv := range span.Attributes() {
			switch kv.Key {
			case attribute.Key(observe.AttrStart):
				start = kv.Value.AsString()
			case attribute.Key(observe.AttrLimit):
				limit = kv.Value.AsString()
			}
		}
		out = append(out, [2]string{start, limit})
	}
	return out
}

func TestNewService_RequiresEngine(t *testing.T) {
	if _, err := NewService(Config{}); !errors.Is(err, ErrMissingEngine) {
		t.Errorf("NewService() error = %v, want ErrMissingEngine", err)
	}
}

func TestPrimes_Uncached(t *testing.T) {
	h := newHarness(t)

	for _, alg := range sieve.Algorithms() {
		resp, err := h.svc.Primes(context.Background(), Request{Limit: 150, Algorithm: alg, ShowPrimes: true})
		if err != nil {
			t.Fatalf("Primes(%s) error = %v", alg, err)
		}
		if resp.PrimeCount != 35 || len(resp.Primes) != 35 || resp.Primes[34] != 149 {
			t.Errorf("Primes(%s) count = %d, last = %v, want 35 ending in 149", alg, resp.PrimeCount, resp.Primes)
		}
		if resp.CacheHit {
			t.Errorf("Primes(%s) CacheHit = true without cache", alg)
		}
		if resp.Algorithm != alg {
			t.Errorf("Algorithm = %v, want %v", resp.Algorithm, alg)
		}
		if !resp.Timestamp.Equal(h.stamp) {
			t.Errorf("Timestamp = %v, want %v", resp.Timestamp, h.stamp)
		}
	}

	if _, ok := h.cache.Highest(); ok {
		t.Error("uncached requests must not touch the cache")
	}
}

func TestPrimes_DefaultAlgorithm(t *testing.T) {
	h := newHarness(t)

	resp, err := h.svc.Primes(context.Background(), Request{Limit: 10})
	if err != nil {
		t.Fatalf("Primes() error = %v", err)
	}
	if resp.Algorithm != sieve.DefaultAlgorithm {
		t.Errorf("Algorithm = %v, want %v", resp.Algorithm, sieve.DefaultAlgorithm)
	}
}

func TestPrimes_ShowPrimesFalseReportsCountOnly(t *testing.T) {
	h := newHarness(t)

	resp, err := h.svc.Primes(context.Background(), Request{Limit: 100})
	if err != nil {
		t.Fatalf("Primes() error = %v", err)
	}
	if resp.PrimeCount != 25 {
		t.Errorf("PrimeCount = %d, want 25", resp.PrimeCount)
	}
	if resp.Primes == nil || len(resp.Primes) != 0 {
		t.Errorf("Primes = %v, want empty non-nil slice", resp.Primes)
	}
}

func TestPrimes_Boundaries(t *testing.T) {
	h := newHarness(t)

	resp, err := h.svc.Primes(context.Background(), Request{Limit: 2, ShowPrimes: true, UseCache: true})
	if err != nil {
		t.Fatalf("Primes(2) error = %v", err)
	}
	if !slices.Equal(resp.Primes, []uint64{2}) {
		t.Errorf("Primes(2) = %v, want [2]", resp.Primes)
	}

	for _, limit := range []uint64{0, 1} {
		if _, err := h.svc.Primes(context.Background(), Request{Limit: limit}); !errors.Is(err, sieve.ErrInvalidRange) {
			t.Errorf("Primes(%d) error = %v, want ErrInvalidRange", limit, err)
		}
	}
}

func TestPrimes_UnknownAlgorithm(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Primes(context.Background(), Request{Limit: 10, Algorithm: "BOGO_SORT"})
	if !errors.Is(err, sieve.ErrUnknownAlgorithm) {
		t.Errorf("Primes() error = %v, want ErrUnknownAlgorithm", err)
	}
}

func TestPrimes_CachedIdempotent(t *testing.T) {
	h := newHarness(t)
	req := Request{Limit: 1000, Algorithm: sieve.AlgorithmEratosthenes, UseCache: true, ShowPrimes: true}

	first, err := h.svc.Primes(context.Background(), req)
	if err != nil {
		t.Fatalf("first Primes() error = %v", err)
	}
	second, err := h.svc.Primes(context.Background(), req)
	if err != nil {
		t.Fatalf("second Primes() error = %v", err)
	}

	if first.CacheHit {
		t.Error("first request CacheHit = true, want false")
	}
	if !second.CacheHit {
		t.Error("second request CacheHit = false, want true")
	}
	if !slices.Equal(first.Primes, second.Primes) {
		t.Error("cached response differs from computed response")
	}
	if n := len(h.computed()); n != 1 {
		t.Errorf("strategy ran %d times, want 1", n)
	}
}

func TestPrimes_CachedMergeComputesOnlyDelta(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.svc.Primes(ctx, Request{Limit: 10, UseCache: true}); err != nil {
		t.Fatalf("Primes(10) error = %v", err)
	}
	resp, err := h.svc.Primes(ctx, Request{Limit: 13, UseCache: true, ShowPrimes: true})
	if err != nil {
		t.Fatalf("Primes(13) error = %v", err)
	}

	if want := []uint64{2, 3, 5, 7, 11, 13}; !slices.Equal(resp.Primes, want) {
		t.Errorf("Primes(13) = %v, want %v", resp.Primes, want)
	}
	if resp.CacheHit {
		t.Error("merge CacheHit = true, want false")
	}

	runs := h.computed()
	if len(runs) != 2 || runs[1] != [2]string{"11", "13"} {
		t.Errorf("strategy runs = %v, want the second over [11, 13]", runs)
	}

	entry, _ := h.cache.Highest()
	if entry.Limit != 13 || h.cache.ByteSize() != admission.ByteSize(6) {
		t.Errorf("cache = limit %d, %d bytes, want limit 13, 48 bytes", entry.Limit, h.cache.ByteSize())
	}
}

func TestPrimes_CachedMergeWhenLimitIsPrime(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, _ = h.svc.Primes(ctx, Request{Limit: 13, UseCache: true})
	resp, err := h.svc.Primes(ctx, Request{Limit: 20, UseCache: true, ShowPrimes: true})
	if err != nil {
		t.Fatalf("Primes(20) error = %v", err)
	}
	if want := []uint64{2, 3, 5, 7, 11, 13, 17, 19}; !slices.Equal(resp.Primes, want) {
		t.Errorf("Primes(20) = %v, want %v without a duplicate 13", resp.Primes, want)
	}
}

func TestPrimes_CachedSubRange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, _ = h.svc.Primes(ctx, Request{Limit: 20, UseCache: true})
	resp, err := h.svc.Primes(ctx, Request{Limit: 10, UseCache: true, ShowPrimes: true})
	if err != nil {
		t.Fatalf("Primes(10) error = %v", err)
	}

	if !slices.Equal(resp.Primes, []uint64{2, 3, 5, 7}) {
		t.Errorf("Primes(10) = %v, want [2 3 5 7]", resp.Primes)
	}
	if !resp.CacheHit {
		t.Error("sub-range CacheHit = false, want true")
	}
	if n := len(h.computed()); n != 1 {
		t.Errorf("strategy ran %d times, want 1", n)
	}
	if entry, _ := h.cache.Highest(); entry.Limit != 20 {
		t.Errorf("retained limit = %d, want 20", entry.Limit)
	}
}

func TestPrimes_AdmissionRejectionIsSwallowed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// 25 primes up to 100 need 200 bytes.
	*h.ceiling = 199
	resp, err := h.svc.Primes(ctx, Request{Limit: 100, UseCache: true, ShowPrimes: true})
	if err != nil {
		t.Fatalf("Primes() error = %v, want rejection to be swallowed", err)
	}
	if resp.PrimeCount != 25 || len(resp.Primes) != 25 {
		t.Errorf("PrimeCount = %d, want 25", resp.PrimeCount)
	}
	if _, ok := h.cache.Highest(); ok {
		t.Error("cache should be empty after rejection")
	}
	if !strings.Contains(h.logs.String(), "exceeds memory budget") {
		t.Errorf("expected a rejection warning in logs:\n%s", h.logs.String())
	}

	*h.ceiling = 200
	if _, err := h.svc.Primes(ctx, Request{Limit: 100, UseCache: true}); err != nil {
		t.Fatalf("Primes() error = %v", err)
	}
	if h.cache.ByteSize() != 200 {
		t.Errorf("ByteSize() = %d, want 200 at exact budget", h.cache.ByteSize())
	}
}

func TestPrimes_AdmissionRejectionOnMerge(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// 4 primes retained (32 bytes); the merged 8 need 64 more.
	*h.ceiling = 95
	_, _ = h.svc.Primes(ctx, Request{Limit: 10, UseCache: true})

	resp, err := h.svc.Primes(ctx, Request{Limit: 20, UseCache: true, ShowPrimes: true})
	if err != nil {
		t.Fatalf("Primes(20) error = %v", err)
	}
	if len(resp.Primes) != 8 {
		t.Errorf("len(Primes) = %d, want 8", len(resp.Primes))
	}
	if h.cache.ByteSize() != 0 {
		t.Errorf("ByteSize() = %d, want 0 after rejected merge", h.cache.ByteSize())
	}
}

func TestPrimes_ComputationFailure(t *testing.T) {
	h := newHarness(t)
	h.pool.Close()

	_, err := h.svc.Primes(context.Background(), Request{Limit: 100, Algorithm: sieve.AlgorithmConcurrentSegmented, UseCache: true})
	if !errors.Is(err, sieve.ErrComputation) {
		t.Errorf("Primes() error = %v, want ErrComputation", err)
	}
	if _, ok := h.cache.Highest(); ok {
		t.Error("failed computation must not be cached")
	}
}

func TestPrimes_ConcurrentCachedRequestsKeepCounterConsistent(t *testing.T) {
	h := newHarness(t)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limit := uint64(100 + (i%8)*250)
			resp, err := h.svc.Primes(context.Background(), Request{
				Limit:      limit,
				Algorithm:  sieve.AlgorithmSegmentedBitset,
				UseCache:   true,
				ShowPrimes: true,
			})
			if err != nil {
				t.Errorf("Primes(%d) error = %v", limit, err)
				return
			}
			want, _ := sieve.Eratosthenes(2, limit)
			if !slices.Equal(resp.Primes, want) {
				t.Errorf("Primes(%d) returned %d primes, want %d", limit, len(resp.Primes), len(want))
			}
		}()
	}
	wg.Wait()

	entry, ok := h.cache.Highest()
	if !ok || entry.Limit != 1850 {
		t.Fatalf("retained limit = %d, want 1850", entry.Limit)
	}
	if got, want := h.cache.ByteSize(), admission.ByteSize(len(entry.Primes)); got != want {
		t.Errorf("ByteSize() = %d, want %d", got, want)
	}
}

func TestCompute_Range(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.Compute(context.Background(), sieve.AlgorithmTrialDivisionOptimized, 100, 110)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if !slices.Equal(res.Primes, []uint64{101, 103, 107, 109}) {
		t.Errorf("Compute() = %v", res.Primes)
	}
	if res.WallMillis() > res.WallNanos() {
		t.Errorf("WallMillis() = %d exceeds WallNanos() = %d", res.WallMillis(), res.WallNanos())
	}
}

func TestCompute_DispatchesEachAlgorithm(t *testing.T) {
	h := newHarness(t)

	for _, alg := range sieve.Algorithms() {
		res, err := h.svc.Compute(context.Background(), alg, 2, 30)
		if err != nil {
			t.Fatalf("Compute(%s) error = %v", alg, err)
		}
		if !slices.Equal(res.Primes, []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}) {
			t.Errorf("Compute(%s) = %v", alg, res.Primes)
		}
	}

	spans := h.spans.Ended()
	if len(spans) != len(sieve.Algorithms()) {
		t.Fatalf("recorded %d spans, want %d", len(spans), len(sieve.Algorithms()))
	}
	for i, alg := range sieve.Algorithms() {
		var got string
		for _, kv := range spans[i].Attributes() {
			if kv.Key == attribute.Key(observe.AttrAlgorithm) {
				got = kv.Value.AsString()
			}
		}
		if got != alg.Slug() {
			t.Errorf("span %d algorithm = %q, want %q", i, got, alg.Slug())
		}
	}
}

func TestResult_Wall(t *testing.T) {
	r := Result{Elapsed: 2500 * time.Microsecond}
	if r.WallNanos() != 2_500_000 || r.WallMillis() != 2 {
		t.Errorf("WallNanos/WallMillis = %d/%d, want 2500000/2", r.WallNanos(), r.WallMillis())
	}
	if (Result{Elapsed: -1}).WallNanos() != 0 {
		t.Error("negative elapsed should clamp to 0")
	}
}
