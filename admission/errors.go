package admission

import (
	"errors"
	"fmt"
)

// ErrMemoryConstraint indicates a write that would exceed the memory budget.
var ErrMemoryConstraint = errors.New("admission: memory constraint exceeded")

// ConstraintError describes a rejected write. It matches ErrMemoryConstraint
// with errors.Is.
type ConstraintError struct {
	Current   uint64
	Candidate uint64
	Budget    uint64
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%v: %s retained + %s requested exceeds budget of %s",
		ErrMemoryConstraint, FormatBytes(e.Current), FormatBytes(e.Candidate), FormatBytes(e.Budget))
}

// Unwrap returns ErrMemoryConstraint.
func (e *ConstraintError) Unwrap() error {
	return ErrMemoryConstraint
}
