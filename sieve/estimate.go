package sieve

import (
	"fmt"
	"math"
)

// pntMargin is the safety margin applied to the Prime Number Theorem estimate.
const pntMargin = 1.3

// EstimateCount returns an upper estimate of the number of primes up to limit,
// limit / ln(limit) * 1.3. It fails with ErrInvalidRange when limit is below 2
// or the estimate would not fit in an addressable array.
func EstimateCount(limit uint64) (int, error) {
	if limit < 2 {
		return 0, fmt.Errorf("%w: limit %d must be at least 2", ErrInvalidRange, limit)
	}

	est := float64(limit) / math.Log(float64(limit)) * pntMargin
	if est > math.MaxInt32 {
		return 0, fmt.Errorf("%w: about %.0f primes up to %d do not fit in an array", ErrInvalidRange, est, limit)
	}
	return int(est), nil
}

// capacity validates the range and returns the pre-sized output capacity,
// never larger than the width of [start, limit].
func capacity(start, limit uint64) (int, error) {
	n, err := EstimateCount(limit)
	if err != nil {
		return 0, err
	}
	start = clampStart(start)
	if start > limit {
		return 0, nil
	}
	if width := limit - start + 1; uint64(n) > width {
		n = int(width)
	}
	return n, nil
}

func clampStart(start uint64) uint64 {
	return max(start, 2)
}

// isqrt returns floor(sqrt(n)) without overflowing.
func isqrt(n uint64) uint64 {
	r := uint64(math.Sqrt(float64(n)))
	for r > 0 && r > n/r {
		r--
	}
	for r+1 <= n/(r+1) {
		r++
	}
	return r
}
