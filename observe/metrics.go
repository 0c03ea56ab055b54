package observe

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricComputeTotal    = "primes.compute.total"
	MetricComputeErrors   = "primes.compute.errors"
	MetricComputeDuration = "primes.compute.duration_ms"
	MetricCacheLookups    = "primes.cache.lookups"
	MetricCacheRejections = "primes.cache.rejections"
	MetricCacheBytes      = "primes.cache.bytes"
)

// Metrics records computation and cache metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCompute records one strategy run with its duration and error.
	RecordCompute(ctx context.Context, meta ComputeMeta, duration time.Duration, err error)

	// RecordCacheLookup records whether a cached request was served from the
	// cache.
	RecordCacheLookup(ctx context.Context, hit bool)

	// RecordCacheRejection records a cache write refused by admission control.
	RecordCacheRejection(ctx context.Context)

	// ObserveCacheBytes reports fn as the retained cache size at each
	// collection.
	ObserveCacheBytes(fn func() uint64) error
}

type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	lookupCount  metric.Int64Counter
	rejectCount  metric.Int64Counter
	bytesGauge   metric.Int64ObservableGauge
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		MetricComputeTotal,
		metric.WithDescription("Total number of prime computations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		MetricComputeErrors,
		metric.WithDescription("Total number of failed prime computations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		MetricComputeDuration,
		metric.WithDescription("Prime computation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	lookupCount, err := meter.Int64Counter(
		MetricCacheLookups,
		metric.WithDescription("Cached requests by hit or miss"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	rejectCount, err := meter.Int64Counter(
		MetricCacheRejections,
		metric.WithDescription("Cache writes rejected by memory admission control"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return nil, err
	}

	bytesGauge, err := meter.Int64ObservableGauge(
		MetricCacheBytes,
		metric.WithDescription("Bytes retained by the prime cache"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		lookupCount:  lookupCount,
		rejectCount:  rejectCount,
		bytesGauge:   bytesGauge,
	}, nil
}

func (m *metricsImpl) RecordCompute(ctx context.Context, meta ComputeMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String(AttrAlgorithm, meta.Algorithm))

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

func (m *metricsImpl) RecordCacheLookup(ctx context.Context, hit bool) {
	m.lookupCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool(AttrCacheHit, hit)))
}

func (m *metricsImpl) RecordCacheRejection(ctx context.Context) {
	m.rejectCount.Add(ctx, 1)
}

func (m *metricsImpl) ObserveCacheBytes(fn func() uint64) error {
	_, err := m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(m.bytesGauge, int64(min(fn(), math.MaxInt64)))
		return nil
	}, m.bytesGauge)
	return err
}

type noopMetrics struct{}

func (m *noopMetrics) RecordCompute(context.Context, ComputeMeta, time.Duration, error) {}
func (m *noopMetrics) RecordCacheLookup(context.Context, bool)                          {}
func (m *noopMetrics) RecordCacheRejection(context.Context)                             {}
func (m *noopMetrics) ObserveCacheBytes(func() uint64) error                            { return nil }
