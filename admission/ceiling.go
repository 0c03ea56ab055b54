package admission

import (
	"math"
	"runtime/debug"
)

// DefaultFallbackCeiling is used when neither a Go memory limit nor the host
// RAM can be determined.
const DefaultFallbackCeiling uint64 = 1 << 30

// RuntimeCeiling returns a ceiling source that resolves, on every call, to the
// Go soft memory limit when one is set, else the total host RAM, else
// fallback.
func RuntimeCeiling(fallback uint64) func() uint64 {
	if fallback == 0 {
		fallback = DefaultFallbackCeiling
	}
	return func() uint64 {
		// A negative input only reads the limit.
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			return uint64(limit)
		}
		if total := hostMemory(); total > 0 {
			return total
		}
		return fallback
	}
}

// FixedCeiling returns a ceiling source that always reports bytes.
func FixedCeiling(bytes uint64) func() uint64 {
	return func() uint64 { return bytes }
}
