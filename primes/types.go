package primes

import (
	"math"
	"time"

	"github.com/jonwraymond/primeops/sieve"
)

// Request asks for every prime in [2, Limit].
type Request struct {
	Limit uint64

	// Algorithm selects the strategy. Default: sieve.DefaultAlgorithm
	Algorithm sieve.Algorithm

	// UseCache routes the request through the incremental cache.
	UseCache bool

	// ShowPrimes includes the primes in the response; otherwise only the
	// count is reported. The primes are computed either way.
	ShowPrimes bool
}

// Response is the outcome of a Request.
type Response struct {
	Algorithm  sieve.Algorithm
	CacheHit   bool
	ExecNanos  uint64
	ExecMillis uint64
	Timestamp  time.Time
	PrimeCount uint32
	Primes     []uint64
}

// Result is one timed computation. Primes is owned by the caller.
type Result struct {
	Primes  []uint64
	Elapsed time.Duration
}

// WallNanos returns the elapsed time in nanoseconds.
func (r Result) WallNanos() uint64 {
	return uint64(max(r.Elapsed, 0))
}

// WallMillis returns the elapsed time in whole milliseconds.
func (r Result) WallMillis() uint64 {
	return uint64(max(r.Elapsed, 0) / time.Millisecond)
}

func primeCount(n int) uint32 {
	return uint32(min(n, math.MaxUint32))
}
