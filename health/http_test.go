package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonwraymond/primeops/admission"
	"github.com/jonwraymond/primeops/cache"
)

func serve(h http.HandlerFunc, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLivenessHandler(t *testing.T) {
	rec := serve(LivenessHandler(), "/healthz")

	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("response = %d %q, want 200 OK", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "text/plain" {
		t.Errorf("Content-Type = %v, want text/plain", rec.Header().Get("Content-Type"))
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		result   Result
		wantCode int
		wantBody string
	}{
		{result: Healthy("ok"), wantCode: http.StatusOK, wantBody: "OK"},
		{result: Degraded("busy"), wantCode: http.StatusOK, wantBody: "DEGRADED"},
		{result: Unhealthy("down", nil), wantCode: http.StatusServiceUnavailable, wantBody: "UNHEALTHY"},
	}

	for _, tt := range tests {
		t.Run(tt.wantBody, func(t *testing.T) {
			agg := NewAggregator()
			agg.Register("c", staticChecker("c", tt.result))

			rec := serve(ReadinessHandler(agg), "/readyz")
			if rec.Code != tt.wantCode || rec.Body.String() != tt.wantBody {
				t.Errorf("response = %d %q, want %d %q", rec.Code, rec.Body.String(), tt.wantCode, tt.wantBody)
			}
		})
	}
}

func TestDetailedHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Register("memory", NewMemoryChecker(MemoryCheckerConfig{}, fixedSize(900), fixedBudget(1000)))
	agg.Register("pool", staticChecker("pool", Healthy("ok")))

	rec := serve(DetailedHandler(agg), "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200 for degraded", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %v, want application/json", rec.Header().Get("Content-Type"))
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want degraded", resp.Status)
	}
	if resp.Checks["memory"].Status != "degraded" || resp.Checks["pool"].Status != "healthy" {
		t.Errorf("checks = %+v", resp.Checks)
	}
	if resp.Checks["memory"].Details["cache_bytes"] != float64(900) {
		t.Errorf("memory details = %v", resp.Checks["memory"].Details)
	}
}

func TestDetailedHandler_Unhealthy(t *testing.T) {
	agg := NewAggregator()
	agg.Register("memory", NewMemoryChecker(MemoryCheckerConfig{}, fixedSize(0), fixedBudget(0)))

	rec := serve(DetailedHandler(agg), "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", rec.Code)
	}

	var resp HealthResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Checks["memory"].Error == "" {
		t.Error("expected the check error in the response")
	}
}

func TestReadinessHandler_FullCacheStaysReady(t *testing.T) {
	primes := []uint64{2, 3, 5, 7, 11, 13}
	ctrl := admission.New(admission.Config{
		SafetyFraction: 1,
		Ceiling:        admission.FixedCeiling(admission.ByteSize(len(primes))),
	})
	c := cache.NewRolling(ctrl)
	if err := c.Store(13, primes); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if c.ByteSize() != ctrl.Budget() {
		t.Fatalf("ByteSize() = %d, want the full budget %d", c.ByteSize(), ctrl.Budget())
	}

	agg := NewAggregator()
	agg.Register("memory", NewMemoryChecker(MemoryCheckerConfig{}, c, ctrl))

	rec := serve(ReadinessHandler(agg), "/readyz")
	if rec.Code != http.StatusOK || rec.Body.String() != "DEGRADED" {
		t.Errorf("response = %d %q, want 200 DEGRADED", rec.Code, rec.Body.String())
	}
}
