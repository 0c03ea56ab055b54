package sieve

import (
	"math"
	"math/bits"
)

// bitsetWindow is the number of candidates sieved per window by
// SegmentedBitset, 32 KiB of marks.
const bitsetWindow = 1 << 18

// SegmentedBitset returns the primes in [start, limit] by sieving fixed-size
// windows with the primes up to sqrt(limit). Memory use is bounded by the
// window size and the output, never by limit itself.
func SegmentedBitset(start, limit uint64) ([]uint64, error) {
	n, err := capacity(start, limit)
	if err != nil {
		return nil, err
	}

	small := smallPrimes(isqrt(limit))
	marks := make([]uint64, words(bitsetWindow))

	primes := make([]uint64, 0, n)
	for lo := clampStart(start); lo <= limit; {
		hi := min(lo+bitsetWindow-1, limit)
		primes = sieveSegment(primes, marks, lo, hi, small)
		lo = hi + 1
	}
	return primes, nil
}

// sieveSegment appends the primes in [lo, hi] to dst. small must hold every
// prime up to sqrt(hi), marks at least words(hi-lo+1) words, and lo >= 2.
// Marks are reset before use.
func sieveSegment(dst, marks []uint64, lo, hi uint64, small []uint64) []uint64 {
	size := hi - lo + 1
	marks = marks[:words(size)]
	clear(marks)

	for _, p := range small {
		if p > hi/p {
			break
		}
		first := max(p*p, (lo+p-1)/p*p)
		for m := first; m <= hi; m += p {
			off := m - lo
			marks[off>>6] |= 1 << (off & 63)
		}
	}

	for w, word := range marks {
		free := ^word
		for free != 0 {
			off := uint64(w)<<6 + uint64(bits.TrailingZeros64(free))
			if off >= size {
				break
			}
			dst = append(dst, lo+off)
			free &= free - 1
		}
	}
	return dst
}

func words(size uint64) int {
	return int((size + 63) / 64)
}

// segmentCapacity estimates the primes in [lo, hi] for pre-sizing.
func segmentCapacity(lo, hi uint64) int {
	width := float64(hi - lo + 1)
	return int(width/math.Log(float64(max(hi, 3)))*pntMargin) + 1
}
