// Package admission decides whether a cache write fits in memory.
//
// A Controller derives a byte budget from a memory ceiling and a safety
// fraction (40% by default). A write is admitted when the bytes already
// retained plus the bytes of the new data stay within that budget:
//
//	ctrl := admission.New(admission.Config{
//		Ceiling: admission.RuntimeCeiling(1 << 30),
//	})
//	if err := ctrl.AssertSafe(current, admission.ByteSize(len(primes))); err != nil {
//		// errors.Is(err, admission.ErrMemoryConstraint)
//	}
//
// The ceiling is a function so it can follow runtime changes and be replaced
// in tests. RuntimeCeiling resolves it from GOMEMLIMIT, then total host RAM,
// then a fallback.
package admission
