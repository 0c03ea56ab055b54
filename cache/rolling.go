package cache

import (
	"sort"
	"sync"

	"github.com/jonwraymond/primeops/admission"
)

// Rolling is a Cache that keeps only the entry with the highest limit.
type Rolling struct {
	admit *admission.Controller

	mu    sync.RWMutex
	entry *Entry
	bytes uint64
}

// NewRolling creates an empty cache whose writes are checked by admit.
// A nil controller uses admission defaults.
func NewRolling(admit *admission.Controller) *Rolling {
	if admit == nil {
		admit = admission.New(admission.Config{})
	}
	return &Rolling{admit: admit}
}

// Lookup returns the retained primes when limit equals the retained limit.
func (c *Rolling) Lookup(limit uint64) ([]uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil || c.entry.Limit != limit {
		return nil, false
	}
	return c.entry.Primes, true
}

// Highest returns the retained entry.
func (c *Rolling) Highest() (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil {
		return Entry{}, false
	}
	return *c.entry, true
}

// Slice returns the retained primes p with start <= p <= limit. It misses
// when nothing is retained or the retained limit is below limit.
func (c *Rolling) Slice(start, limit uint64) ([]uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil || c.entry.Limit < limit {
		return nil, false
	}
	primes := c.entry.Primes
	lo := sort.Search(len(primes), func(i int) bool { return primes[i] >= start })
	hi := sort.Search(len(primes), func(i int) bool { return primes[i] > limit })
	if lo > hi {
		lo = hi
	}
	return primes[lo:hi:hi], true
}

// Store retains primes as the entry for limit. It is a no-op when the
// retained entry already reaches limit. When admission rejects the write the
// cache is cleared and the admission error returned.
func (c *Rolling) Store(limit uint64, primes []uint64) error {
	if !ascending(primes, 0, limit) {
		return ErrUnsorted
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry != nil && c.entry.Limit >= limit {
		return nil
	}
	return c.commit(limit, primes)
}

// Extend merges the retained primes with delta, the primes in
// (retained limit, limit], and retains the result. On admission failure the
// cache is cleared, and the merged primes are returned with the error.
func (c *Rolling) Extend(limit uint64, delta []uint64) ([]uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry == nil || c.entry.Limit >= limit {
		return nil, ErrNotExtendable
	}
	if !ascending(delta, c.entry.Limit, limit) {
		return nil, ErrUnsorted
	}

	merged := make([]uint64, 0, len(c.entry.Primes)+len(delta))
	merged = append(merged, c.entry.Primes...)
	merged = append(merged, delta...)

	return merged, c.commit(limit, merged)
}

// commit must be called with mu held.
func (c *Rolling) commit(limit uint64, primes []uint64) error {
	candidate := admission.ByteSize(len(primes))
	if err := c.admit.AssertSafe(c.bytes, candidate); err != nil {
		c.entry = nil
		c.bytes = 0
		return err
	}

	c.entry = &Entry{Limit: limit, Primes: primes}
	c.bytes = candidate
	return nil
}

// Clear drops the retained entry.
func (c *Rolling) Clear() {
	c.mu.Lock()
	c.entry = nil
	c.bytes = 0
	c.mu.Unlock()
}

// ByteSize returns the bytes held by the retained entry.
func (c *Rolling) ByteSize() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bytes
}

// ascending reports whether primes is strictly ascending with every value in
// (after, limit].
func ascending(primes []uint64, after, limit uint64) bool {
	prev := after
	for i, p := range primes {
		if (i > 0 || after > 0) && p <= prev {
			return false
		}
		if p > limit {
			return false
		}
		prev = p
	}
	return true
}

// Ensure Rolling implements Cache
var _ Cache = (*Rolling)(nil)
