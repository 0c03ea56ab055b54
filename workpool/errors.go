package workpool

import "errors"

// Sentinel errors for pool operations.
var (
	// ErrPoolClosed is returned when work is submitted after Close.
	ErrPoolClosed = errors.New("workpool: pool is closed")

	// ErrTaskPanicked is returned when a task panics. The panic value is
	// included in the wrapping error's message.
	ErrTaskPanicked = errors.New("workpool: task panicked")
)
