package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (*tracerImpl, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return &tracerImpl{tracer: tp.Tracer("test")}, recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestComputeMeta_SpanName(t *testing.T) {
	meta := ComputeMeta{Algorithm: "concurrent-segmented-sieve"}
	if got, want := meta.SpanName(), "primes.compute.concurrent-segmented-sieve"; got != want {
		t.Errorf("SpanName() = %q, want %q", got, want)
	}
}

func TestComputeMeta_Validate(t *testing.T) {
	if err := (ComputeMeta{}).Validate(); !errors.Is(err, ErrMissingAlgorithm) {
		t.Errorf("Validate() error = %v, want ErrMissingAlgorithm", err)
	}
	if err := (ComputeMeta{Algorithm: "trial-division"}).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestTracer_SpanAttributes(t *testing.T) {
	tr, recorder := newRecordingTracer()
	meta := ComputeMeta{Algorithm: "segmented-sieve-bitset", Start: 2, Limit: 1000}

	_, span := tr.StartSpan(context.Background(), meta)
	tr.EndSpan(span, 168, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name() != "primes.compute.segmented-sieve-bitset" {
		t.Errorf("span name = %q", got.Name())
	}

	attrs := spanAttrs(got)
	if v := attrs[AttrAlgorithm].AsString(); v != "segmented-sieve-bitset" {
		t.Errorf("%s = %q", AttrAlgorithm, v)
	}
	if v := attrs[AttrLimit].AsString(); v != "1000" {
		t.Errorf("%s = %q, want 1000", AttrLimit, v)
	}
	if v := attrs[AttrCount].AsInt64(); v != 168 {
		t.Errorf("%s = %d, want 168", AttrCount, v)
	}
	if attrs[AttrError].AsBool() {
		t.Errorf("%s = true, want false", AttrError)
	}
	if got.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status().Code)
	}
}

func TestTracer_EndSpanRecordsError(t *testing.T) {
	tr, recorder := newRecordingTracer()

	_, span := tr.StartSpan(context.Background(), ComputeMeta{Algorithm: "trial-division"})
	tr.EndSpan(span, 0, errors.New("segment failed"))

	got := recorder.Ended()[0]
	if got.Status().Code != codes.Error || got.Status().Description != "segment failed" {
		t.Errorf("status = %+v, want Error with description", got.Status())
	}
	if !spanAttrs(got)[AttrError].AsBool() {
		t.Errorf("%s = false, want true", AttrError)
	}
	if len(got.Events()) == 0 {
		t.Error("expected the error to be recorded as an event")
	}
}

func TestNoopTracer(t *testing.T) {
	tr := newNoopTracer()
	_, span := tr.StartSpan(context.Background(), ComputeMeta{Algorithm: "noop"})
	tr.EndSpan(span, 0, errors.New("ignored"))
}
