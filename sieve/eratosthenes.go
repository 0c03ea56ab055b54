package sieve

import (
	"fmt"
	"math"
)

// Eratosthenes returns the primes in [start, limit] using a boolean array of
// size limit+1. Both bounds must stay below math.MaxInt32.
func Eratosthenes(start, limit uint64) ([]uint64, error) {
	if start >= math.MaxInt32 {
		return nil, fmt.Errorf("%w: start %d exceeds the 32-bit array range", ErrInvalidRange, start)
	}
	if limit >= math.MaxInt32 {
		return nil, fmt.Errorf("%w: limit %d exceeds the 32-bit array range", ErrInvalidRange, limit)
	}
	n, err := capacity(start, limit)
	if err != nil {
		return nil, err
	}

	composite := markComposites(limit)

	primes := make([]uint64, 0, n)
	for i := clampStart(start); i <= limit; i++ {
		if !composite[i] {
			primes = append(primes, i)
		}
	}
	return primes, nil
}

// markComposites sieves [0, n]; indexes 0 and 1 are marked composite.
func markComposites(n uint64) []bool {
	composite := make([]bool, n+1)
	composite[0] = true
	if n >= 1 {
		composite[1] = true
	}
	for p := uint64(2); p*p <= n; p++ {
		if composite[p] {
			continue
		}
		for m := p * p; m <= n; m += p {
			composite[m] = true
		}
	}
	return composite
}

// smallPrimes returns every prime up to n.
func smallPrimes(n uint64) []uint64 {
	if n < 2 {
		return nil
	}
	composite := markComposites(n)
	primes := make([]uint64, 0, int(float64(n)/math.Log(float64(n))*pntMargin)+1)
	for i := uint64(2); i <= n; i++ {
		if !composite[i] {
			primes = append(primes, i)
		}
	}
	return primes
}
