package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrNotExtendable indicates Extend was called without a retained entry
	// below the requested limit.
	ErrNotExtendable = errors.New("cache: no retained entry below limit")

	// ErrUnsorted indicates a Store or Extend whose primes are not strictly
	// ascending or exceed the limit.
	ErrUnsorted = errors.New("cache: primes not ascending within limit")
)

// Entry is a retained result: every prime in [2, Limit], ascending.
type Entry struct {
	Limit  uint64
	Primes []uint64
}

// Cache stores computed prime ranges.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Ownership: returned slices are shared with the cache and read-only.
// - Errors: Lookup, Highest and Slice never error; they return false on miss.
type Cache interface {
	// Lookup returns the primes up to limit only on an exact limit match.
	Lookup(limit uint64) ([]uint64, bool)

	// Highest returns the retained entry, if any.
	Highest() (Entry, bool)

	// Slice returns the retained primes in [start, limit] when the retained
	// entry covers limit.
	Slice(start, limit uint64) ([]uint64, bool)

	// Store retains primes as the entry for limit after an admission check.
	Store(limit uint64, primes []uint64) error

	// Extend appends delta to the retained entry, producing the entry for
	// limit. The merged primes are returned even when admission fails.
	Extend(limit uint64, delta []uint64) ([]uint64, error)

	// Clear drops the retained entry.
	Clear()

	// ByteSize returns the bytes held by the retained entry.
	ByteSize() uint64
}
