package primes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/primeops/admission"
	"github.com/jonwraymond/primeops/cache"
	"github.com/jonwraymond/primeops/observe"
	"github.com/jonwraymond/primeops/sieve"
)

// Config configures a Service.
type Config struct {
	// Engine runs the strategies. Required.
	Engine *sieve.Engine

	// Cache retains results of cached requests.
	// Default: cache.NewRolling with admission defaults
	Cache cache.Cache

	// Middleware instruments computations and receives cache metrics.
	// Default: observe.NopMiddleware()
	Middleware *observe.Middleware

	// Now stamps responses. Default: time.Now
	Now func() time.Time
}

// Service answers prime requests.
//
// Contract:
// - Concurrency: safe for concurrent use; cached requests are serialized.
// - Context: ctx carries telemetry; a started computation is not cancelled.
// - Errors: sieve.ErrInvalidRange, sieve.ErrUnknownAlgorithm or
//   sieve.ErrComputation. Admission failures are never returned.
type Service struct {
	compute map[sieve.Algorithm]observe.ComputeFunc
	engine  *sieve.Engine
	cache   cache.Cache
	metrics observe.Metrics
	logger  observe.Logger
	now     func() time.Time

	// mu guards the whole cached path from lookup to commit.
	mu sync.Mutex
}

// NewService creates a Service.
func NewService(config Config) (*Service, error) {
	if config.Engine == nil {
		return nil, ErrMissingEngine
	}
	if config.Cache == nil {
		config.Cache = cache.NewRolling(nil)
	}
	if config.Middleware == nil {
		config.Middleware = observe.NopMiddleware()
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	s := &Service{
		engine:  config.Engine,
		cache:   config.Cache,
		metrics: config.Middleware.Metrics(),
		logger:  config.Middleware.Logger(),
		now:     config.Now,
	}
	s.compute = make(map[sieve.Algorithm]observe.ComputeFunc, len(sieve.Algorithms()))
	for _, alg := range sieve.Algorithms() {
		s.compute[alg] = config.Middleware.Wrap(func(ctx context.Context, meta observe.ComputeMeta) ([]uint64, error) {
			return s.engine.Compute(ctx, alg, meta.Start, meta.Limit)
		})
	}

	if err := s.metrics.ObserveCacheBytes(s.cache.ByteSize); err != nil {
		return nil, fmt.Errorf("primes: registering cache gauge: %w", err)
	}
	return s, nil
}

// run dispatches to the instrumented strategy for alg. alg must be valid.
func (s *Service) run(ctx context.Context, alg sieve.Algorithm, start, limit uint64) ([]uint64, error) {
	return s.compute[alg](ctx, observe.ComputeMeta{Algorithm: alg.Slug(), Start: start, Limit: limit})
}

// Compute runs alg over [start, limit] without touching the cache.
func (s *Service) Compute(ctx context.Context, alg sieve.Algorithm, start, limit uint64) (Result, error) {
	if !alg.Valid() {
		return Result{}, fmt.Errorf("%w: %q", sieve.ErrUnknownAlgorithm, string(alg))
	}

	begin := time.Now()
	primes, err := s.run(ctx, alg, start, limit)
	if err != nil {
		return Result{}, err
	}
	return Result{Primes: primes, Elapsed: time.Since(begin)}, nil
}

// Primes answers req.
func (s *Service) Primes(ctx context.Context, req Request) (*Response, error) {
	if req.Limit < 2 {
		return nil, fmt.Errorf("%w: limit %d must be at least 2", sieve.ErrInvalidRange, req.Limit)
	}
	if req.Algorithm == "" {
		req.Algorithm = sieve.DefaultAlgorithm
	}
	if !req.Algorithm.Valid() {
		return nil, fmt.Errorf("%w: %q", sieve.ErrUnknownAlgorithm, string(req.Algorithm))
	}

	var (
		res Result
		hit bool
		err error
	)
	if req.UseCache {
		res, hit, err = s.cached(ctx, req.Algorithm, req.Limit)
	} else {
		res, err = s.Compute(ctx, req.Algorithm, 2, req.Limit)
	}
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Algorithm:  req.Algorithm,
		CacheHit:   hit,
		ExecNanos:  res.WallNanos(),
		ExecMillis: res.WallMillis(),
		Timestamp:  s.now(),
		PrimeCount: primeCount(len(res.Primes)),
		Primes:     []uint64{},
	}
	if req.ShowPrimes {
		resp.Primes = res.Primes
	}
	return resp, nil
}

// cached serves limit through the cache. The returned primes may share
// memory with the cache.
func (s *Service) cached(ctx context.Context, alg sieve.Algorithm, limit uint64) (Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	begin := time.Now()
	if primes, ok := s.cache.Lookup(limit); ok {
		return s.hit(ctx, limit, primes, time.Since(begin))
	}
	if primes, ok := s.cache.Slice(2, limit); ok {
		return s.hit(ctx, limit, primes, time.Since(begin))
	}
	s.metrics.RecordCacheLookup(ctx, false)

	if highest, ok := s.cache.Highest(); ok {
		res, err := s.extend(ctx, alg, highest.Limit, limit)
		if !errors.Is(err, cache.ErrNotExtendable) {
			return res, false, err
		}
	}

	begin = time.Now()
	primes, err := s.run(ctx, alg, 2, limit)
	if err != nil {
		return Result{}, false, err
	}
	s.logger.Info(ctx, "cache miss, computed full range",
		observe.Field{Key: observe.AttrLimit, Value: limit},
		observe.Field{Key: observe.AttrCount, Value: len(primes)},
	)
	if err := s.cache.Store(limit, primes); err != nil {
		if err := s.rejected(ctx, err); err != nil {
			return Result{}, false, err
		}
	}
	return Result{Primes: primes, Elapsed: time.Since(begin)}, false, nil
}

func (s *Service) hit(ctx context.Context, limit uint64, primes []uint64, elapsed time.Duration) (Result, bool, error) {
	s.metrics.RecordCacheLookup(ctx, true)
	s.logger.Debug(ctx, "cache hit",
		observe.Field{Key: observe.AttrLimit, Value: limit},
		observe.Field{Key: observe.AttrCount, Value: len(primes)},
	)
	return Result{Primes: primes, Elapsed: elapsed}, true, nil
}

// extend computes (from, limit] and merges it into the retained entry.
func (s *Service) extend(ctx context.Context, alg sieve.Algorithm, from, limit uint64) (Result, error) {
	begin := time.Now()
	delta, err := s.run(ctx, alg, from+1, limit)
	if err != nil {
		return Result{}, err
	}

	merged, err := s.cache.Extend(limit, delta)
	switch {
	case errors.Is(err, cache.ErrNotExtendable):
		return Result{}, err
	case err != nil:
		if err := s.rejected(ctx, err); err != nil {
			return Result{}, err
		}
	default:
		s.logger.Info(ctx, "cache extended",
			observe.Field{Key: "from", Value: from},
			observe.Field{Key: observe.AttrLimit, Value: limit},
			observe.Field{Key: "delta_count", Value: len(delta)},
			observe.Field{Key: observe.AttrCount, Value: len(merged)},
		)
	}
	return Result{Primes: merged, Elapsed: time.Since(begin)}, nil
}

// rejected swallows admission failures and converts any other cache error
// into a computation error.
func (s *Service) rejected(ctx context.Context, err error) error {
	var ce *admission.ConstraintError
	if !errors.As(err, &ce) {
		return fmt.Errorf("%w: %w", sieve.ErrComputation, err)
	}

	s.metrics.RecordCacheRejection(ctx)
	s.logger.Warn(ctx, "cache cleared, result exceeds memory budget",
		observe.Field{Key: "retained", Value: admission.FormatBytes(ce.Current)},
		observe.Field{Key: "requested", Value: admission.FormatBytes(ce.Candidate)},
		observe.Field{Key: "budget", Value: admission.FormatBytes(ce.Budget)},
	)
	return nil
}
