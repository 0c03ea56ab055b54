package sieve

import (
	"context"
	"fmt"

	"github.com/jonwraymond/primeops/workpool"
)

// DefaultSegmentSize is the number of candidates in one concurrent segment.
// A segment's bitset takes DefaultSegmentSize/8 bytes.
const DefaultSegmentSize = 500_000_000

// Engine dispatches an Algorithm to its strategy. The concurrent strategy
// runs its segments on the shared pool given to NewEngine.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: ctx is only used to hand segments to the pool; computations are
//   not cancelled once started.
// - Errors: ErrUnknownAlgorithm, ErrInvalidRange or ErrComputation.
type Engine struct {
	pool        *workpool.Pool
	segmentSize uint64

	// beforeSegment, when set, runs at the start of each segment task.
	beforeSegment func(index int)
}

// NewEngine creates an engine that schedules concurrent segments on pool.
func NewEngine(pool *workpool.Pool) *Engine {
	return &Engine{
		pool:        pool,
		segmentSize: DefaultSegmentSize,
	}
}

// Compute returns every prime in [start, limit] using alg. A start below 2 is
// treated as 2.
func (e *Engine) Compute(ctx context.Context, alg Algorithm, start, limit uint64) ([]uint64, error) {
	switch alg {
	case AlgorithmTrialDivision:
		return TrialDivision(start, limit)
	case AlgorithmTrialDivisionOptimized:
		return TrialDivisionOptimized(start, limit)
	case AlgorithmEratosthenes:
		return Eratosthenes(start, limit)
	case AlgorithmSegmentedBitset:
		return SegmentedBitset(start, limit)
	case AlgorithmConcurrentSegmented:
		return e.ConcurrentSegmented(ctx, start, limit)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(alg))
	}
}

// ConcurrentSegmented returns the primes in [start, limit]. Primes up to
// sqrt(limit) come from a plain sieve; the rest of the range is split into
// segments sieved in parallel on the pool and concatenated in range order.
func (e *Engine) ConcurrentSegmented(ctx context.Context, start, limit uint64) ([]uint64, error) {
	n, err := capacity(start, limit)
	if err != nil {
		return nil, err
	}
	if e.pool == nil {
		return nil, fmt.Errorf("%w: no worker pool configured", ErrComputation)
	}
	start = clampStart(start)

	root := isqrt(limit)
	small := smallPrimes(root)

	primes := make([]uint64, 0, n)
	for _, p := range small {
		if p >= start {
			primes = append(primes, p)
		}
	}

	var tasks []workpool.Task[[]uint64]
	for lo, index := max(start, root+1), 0; lo <= limit; index++ {
		segLo, segHi := lo, min(lo+e.segmentSize-1, limit)
		tasks = append(tasks, func(context.Context) ([]uint64, error) {
			if e.beforeSegment != nil {
				e.beforeSegment(index)
			}
			marks := make([]uint64, words(segHi-segLo+1))
			out := make([]uint64, 0, segmentCapacity(segLo, segHi))
			return sieveSegment(out, marks, segLo, segHi, small), nil
		})
		lo = segHi + 1
	}

	segments, err := workpool.Gather(ctx, e.pool, tasks)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrComputation, err)
	}

	for _, seg := range segments {
		primes = append(primes, seg...)
	}
	return primes, nil
}
