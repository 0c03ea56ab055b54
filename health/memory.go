package health

import (
	"context"
	"fmt"
	"runtime"

	"github.com/jonwraymond/primeops/admission"
)

// MemoryCheckerConfig configures the memory health checker.
type MemoryCheckerConfig struct {
	// WarningThreshold is the share of the budget that triggers degraded status.
	// Value should be between 0 and 1. Default: 0.8 (80%)
	WarningThreshold float64
}

// ByteSizer reports retained bytes. cache.Cache satisfies it.
type ByteSizer interface {
	ByteSize() uint64
}

// Budgeter reports a byte budget. *admission.Controller satisfies it.
type Budgeter interface {
	Budget() uint64
}

// MemoryChecker checks the cache's retained bytes against the admission
// budget.
//
// A cache may fill its budget: admission clears it on the write that would
// overflow. Fullness is therefore at most Degraded, and only a zero budget is
// Unhealthy.
type MemoryChecker struct {
	config MemoryCheckerConfig
	cache  ByteSizer
	budget Budgeter
}

// NewMemoryChecker creates a new memory health checker.
func NewMemoryChecker(config MemoryCheckerConfig, cache ByteSizer, budget Budgeter) *MemoryChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}

	return &MemoryChecker{config: config, cache: cache, budget: budget}
}

// Name returns the name of this checker.
func (m *MemoryChecker) Name() string {
	return "memory"
}

// Check performs the memory health check.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	retained := m.cache.ByteSize()
	budget := m.budget.Budget()

	details := map[string]any{
		"cache_bytes":  retained,
		"budget_bytes": budget,
		"cache":        admission.FormatBytes(retained),
		"budget":       admission.FormatBytes(budget),
		"heap_alloc":   stats.HeapAlloc,
		"heap_in_use":  stats.HeapInuse,
		"sys":          stats.Sys,
		"num_gc":       stats.NumGC,
		"goroutines":   runtime.NumGoroutine(),
	}

	if budget == 0 {
		return Unhealthy("memory budget is zero", ErrCheckFailed).WithDetails(details)
	}

	usage := float64(retained) / float64(budget)
	details["usage_percent"] = usage * 100

	switch {
	case usage >= 1:
		return Degraded(fmt.Sprintf("cache at memory budget: %.1f%%", usage*100)).WithDetails(details)
	case usage >= m.config.WarningThreshold:
		return Degraded(fmt.Sprintf("cache memory high: %.1f%%", usage*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("cache memory normal: %.1f%%", usage*100)).WithDetails(details)
	}
}
