package sieve

import "errors"

// Sentinel errors for prime computations.
var (
	// ErrInvalidRange indicates a limit below 2, a size estimate that does not
	// fit an addressable array, or a bound outside the 32-bit range for
	// array-indexed strategies.
	ErrInvalidRange = errors.New("sieve: invalid range")

	// ErrUnknownAlgorithm indicates an empty or unrecognized Algorithm.
	ErrUnknownAlgorithm = errors.New("sieve: unknown algorithm")

	// ErrComputation indicates an unexpected failure while computing, such as
	// a failing or panicking segment task.
	ErrComputation = errors.New("sieve: computation failed")
)
