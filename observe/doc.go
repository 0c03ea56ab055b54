// Package observe provides tracing, metrics and structured logging for prime
// computations.
//
// An Observer owns the OpenTelemetry providers and the JSON logger built from
// Config. A Middleware built from it wraps a ComputeFunc so every strategy run
// gets a primes.compute.<algorithm> span, compute metrics and a log line.
// Cache metrics are recorded by the caller through Metrics.
package observe
