package observe

import (
	"context"
	"time"
)

// ComputeFunc is the signature of a strategy run that Middleware wraps.
type ComputeFunc func(ctx context.Context, meta ComputeMeta) ([]uint64, error)

// Middleware wraps computations with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ComputeFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from wrapped function are recorded and propagated unchanged.
//   - Ownership: Results are passed through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
// Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// NopMiddleware returns a Middleware that records nothing.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// Metrics returns the middleware's metrics recorder.
func (m *Middleware) Metrics() Metrics {
	return m.metrics
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Wrap wraps a ComputeFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn ComputeFunc) ComputeFunc {
	return func(ctx context.Context, meta ComputeMeta) ([]uint64, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)

		start := time.Now()
		primes, err := fn(ctx, meta)
		duration := time.Since(start)

		m.tracer.EndSpan(span, len(primes), err)
		m.metrics.RecordCompute(ctx, meta, duration, err)

		logger := m.logger.WithCompute(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "computation failed", fields...)
		} else {
			fields = append(fields, Field{Key: AttrCount, Value: len(primes)})
			logger.Debug(ctx, "computation completed", fields...)
		}

		return primes, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
