// Package server exposes the prime service over HTTP.
//
// Routes:
//
//	GET /api/v1/primes?limit=N&algorithm=A&cache=B&showPrimes=B
//	GET /healthz, /readyz, /health
//	GET /metrics (when Prometheus export is enabled)
//
// Responses are JSON unless the client accepts application/xml. Errors use a
// single body shape, ErrorResponse, for every status.
package server
