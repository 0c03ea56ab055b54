package primes

import "errors"

// ErrMissingEngine indicates a Service was configured without a sieve.Engine.
var ErrMissingEngine = errors.New("primes: engine is required")
