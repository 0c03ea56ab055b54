// Package sieve computes every prime in a closed range [start, limit].
//
// Five strategies are provided, selected by Algorithm:
//
//   - TrialDivision: tests every candidate against all divisors up to its
//     square root.
//   - TrialDivisionOptimized: skips even candidates and even divisors.
//   - Eratosthenes: classic boolean-array sieve over [0, limit]; limited to
//     32-bit addressable ranges.
//   - SegmentedBitset: sieves fixed-size windows with a packed bitset and the
//     primes up to sqrt(limit); memory does not grow with limit.
//   - ConcurrentSegmented: the same windows dispatched to a shared
//     workpool.Pool and joined in range order.
//
// Every strategy returns a strictly ascending slice and pre-sizes it with a
// Prime Number Theorem estimate, failing fast with ErrInvalidRange when the
// estimate cannot be addressed.
//
// Engine maps an Algorithm to its strategy:
//
//	pool := workpool.New(workpool.Config{})
//	defer pool.Close()
//
//	engine := sieve.NewEngine(pool)
//	primes, err := engine.Compute(ctx, sieve.AlgorithmConcurrentSegmented, 2, 1_000_000)
package sieve
