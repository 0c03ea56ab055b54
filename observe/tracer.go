package observe

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Attribute keys shared by spans, metrics and logs.
const (
	AttrAlgorithm = "primes.algorithm"
	AttrStart     = "primes.start"
	AttrLimit     = "primes.limit"
	AttrCount     = "primes.count"
	AttrError     = "primes.error"
	AttrCacheHit  = "primes.cache.hit"
)

// ComputeMeta describes one strategy run for telemetry purposes.
type ComputeMeta struct {
	Algorithm string // algorithm slug, e.g. "segmented-sieve-bitset" (required)
	Start     uint64
	Limit     uint64
}

// SpanName returns the span name for this computation.
// Format: primes.compute.<algorithm>
func (m ComputeMeta) SpanName() string {
	return "primes.compute." + m.Algorithm
}

// Validate reports whether the metadata can be recorded.
func (m ComputeMeta) Validate() error {
	if m.Algorithm == "" {
		return ErrMissingAlgorithm
	}
	return nil
}

// attributes renders bounds as strings since uint64 does not fit an int64
// attribute.
func (m ComputeMeta) attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAlgorithm, m.Algorithm),
		attribute.String(AttrStart, strconv.FormatUint(m.Start, 10)),
		attribute.String(AttrLimit, strconv.FormatUint(m.Limit, 10)),
	}
}

// Tracer wraps OpenTelemetry tracing with compute-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a computation.
	StartSpan(ctx context.Context, meta ComputeMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the prime count and any error.
	EndSpan(span trace.Span, count int, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta ComputeMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool(AttrError, false))

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, count int, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool(AttrError, true))
		span.RecordError(err)
	} else {
		span.SetAttributes(attribute.Int(AttrCount, count))
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ComputeMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ int, _ error) {
	span.End()
}
