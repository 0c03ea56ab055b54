package admission

import (
	"fmt"
	"math"
)

// DefaultSafetyFraction is the share of the memory ceiling the cache may use.
const DefaultSafetyFraction = 0.40

// elementSize is the size in bytes of one retained prime.
const elementSize = 8

// Config configures a Controller.
type Config struct {
	// SafetyFraction is the share of the ceiling available to cached data.
	// Must be in (0, 1]. Default: 0.40
	SafetyFraction float64

	// Ceiling returns the memory ceiling in bytes. It is called on every
	// check. Default: RuntimeCeiling(DefaultFallbackCeiling)
	Ceiling func() uint64
}

// Validate reports whether the config is usable as given.
func (c Config) Validate() error {
	if c.SafetyFraction < 0 || c.SafetyFraction > 1 || math.IsNaN(c.SafetyFraction) {
		return fmt.Errorf("admission: safety fraction %v not in (0, 1]", c.SafetyFraction)
	}
	return nil
}

// Controller checks prospective cache writes against a memory budget.
//
// Contract:
// - Concurrency: safe for concurrent use; it holds no mutable state.
// - Errors: AssertSafe returns *ConstraintError, matching ErrMemoryConstraint.
type Controller struct {
	fraction float64
	ceiling  func() uint64
}

// New creates a controller, applying defaults for zero or invalid fields.
func New(config Config) *Controller {
	if config.Validate() != nil || config.SafetyFraction == 0 {
		config.SafetyFraction = DefaultSafetyFraction
	}
	if config.Ceiling == nil {
		config.Ceiling = RuntimeCeiling(DefaultFallbackCeiling)
	}

	return &Controller{
		fraction: config.SafetyFraction,
		ceiling:  config.Ceiling,
	}
}

// Ceiling returns the current memory ceiling in bytes.
func (c *Controller) Ceiling() uint64 {
	return c.ceiling()
}

// Budget returns the number of bytes cached data may occupy.
func (c *Controller) Budget() uint64 {
	return uint64(float64(c.ceiling()) * c.fraction)
}

// IsSafe reports whether candidate more bytes fit next to current retained
// bytes.
func (c *Controller) IsSafe(current, candidate uint64) bool {
	total := current + candidate
	if total < current {
		return false
	}
	return total <= c.Budget()
}

// AssertSafe is IsSafe returning a *ConstraintError on rejection.
func (c *Controller) AssertSafe(current, candidate uint64) error {
	budget := c.Budget()
	if total := current + candidate; total >= current && total <= budget {
		return nil
	}
	return &ConstraintError{Current: current, Candidate: candidate, Budget: budget}
}

// ByteSize returns the bytes needed to retain count primes.
func ByteSize(count int) uint64 {
	if count <= 0 {
		return 0
	}
	return uint64(count) * elementSize
}

// FormatBytes renders b in decimal megabytes and binary mebibytes.
func FormatBytes(b uint64) string {
	return fmt.Sprintf("%.4f MB and %.4f MiB", float64(b)/1e6, float64(b)/(1<<20))
}
