package sieve

import (
	"fmt"
	"strings"
)

// Algorithm selects the strategy used to compute primes.
type Algorithm string

const (
	// AlgorithmTrialDivision tests each candidate against every divisor up to
	// its square root.
	AlgorithmTrialDivision Algorithm = "NAIVE_TRIAL_DIVISION"
	// AlgorithmTrialDivisionOptimized skips even candidates and even divisors.
	AlgorithmTrialDivisionOptimized Algorithm = "NAIVE_TRIAL_DIVISION_OPTIMISED"
	// AlgorithmEratosthenes is the boolean-array sieve of Eratosthenes.
	AlgorithmEratosthenes Algorithm = "SIEVE_OF_ERATOSTHENES"
	// AlgorithmSegmentedBitset is the single-threaded windowed bitset sieve.
	AlgorithmSegmentedBitset Algorithm = "SEGMENTED_SIEVE_BITSET"
	// AlgorithmConcurrentSegmented sieves segments in parallel on a worker pool.
	AlgorithmConcurrentSegmented Algorithm = "CONCURRENT_SEGMENTED_SIEVE"
)

// DefaultAlgorithm is used when a caller does not name one.
const DefaultAlgorithm = AlgorithmTrialDivision

var slugs = map[Algorithm]string{
	AlgorithmTrialDivision:          "trial-division",
	AlgorithmTrialDivisionOptimized: "trial-division-optimized",
	AlgorithmEratosthenes:           "sieve-of-eratosthenes",
	AlgorithmSegmentedBitset:        "segmented-sieve-bitset",
	AlgorithmConcurrentSegmented:    "concurrent-segmented-sieve",
}

// Algorithms returns every supported algorithm in a stable order.
func Algorithms() []Algorithm {
	return []Algorithm{
		AlgorithmTrialDivision,
		AlgorithmTrialDivisionOptimized,
		AlgorithmEratosthenes,
		AlgorithmSegmentedBitset,
		AlgorithmConcurrentSegmented,
	}
}

// ParseAlgorithm resolves a selector by its canonical name or its kebab-case
// slug, ignoring case and surrounding whitespace.
func ParseAlgorithm(s string) (Algorithm, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: no algorithm given", ErrUnknownAlgorithm)
	}

	if a := Algorithm(strings.ToUpper(s)); a.Valid() {
		return a, nil
	}

	lower := strings.ToLower(s)
	for a, slug := range slugs {
		if slug == lower {
			return a, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

// Valid reports whether a names a supported algorithm.
func (a Algorithm) Valid() bool {
	_, ok := slugs[a]
	return ok
}

// Slug returns the kebab-case name used in span names and metric attributes.
func (a Algorithm) Slug() string {
	if slug, ok := slugs[a]; ok {
		return slug
	}
	return "unknown"
}

func (a Algorithm) String() string {
	return string(a)
}
