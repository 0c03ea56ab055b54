package sieve

// TrialDivision returns the primes in [start, limit] by testing every
// candidate against all divisors j with j*j <= candidate.
func TrialDivision(start, limit uint64) ([]uint64, error) {
	return trial(start, limit, isPrime)
}

// TrialDivisionOptimized is TrialDivision with even candidates and even
// divisors skipped.
func TrialDivisionOptimized(start, limit uint64) ([]uint64, error) {
	return trial(start, limit, isPrimeOdd)
}

func trial(start, limit uint64, test func(uint64) bool) ([]uint64, error) {
	n, err := capacity(start, limit)
	if err != nil {
		return nil, err
	}

	primes := make([]uint64, 0, n)
	for i := clampStart(start); i <= limit; i++ {
		if test(i) {
			primes = append(primes, i)
		}
	}
	return primes, nil
}

// isPrime expects n >= 2.
func isPrime(n uint64) bool {
	for j := uint64(2); j <= n/j; j++ {
		if n%j == 0 {
			return false
		}
	}
	return true
}

func isPrimeOdd(n uint64) bool {
	switch {
	case n < 2:
		return false
	case n == 2:
		return true
	case n%2 == 0:
		return false
	}
	for j := uint64(3); j <= n/j; j += 2 {
		if n%j == 0 {
			return false
		}
	}
	return true
}
