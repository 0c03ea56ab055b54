package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/primeops/workpool"
)

// NewPoolChecker reports the occupancy of the worker pool. A closed pool is
// unhealthy; a pool with every slot busy is degraded.
func NewPoolChecker(pool *workpool.Pool) Checker {
	return NewCheckerFunc("pool", func(ctx context.Context) Result {
		m := pool.Metrics()
		details := map[string]any{
			"size":       m.Size,
			"active":     m.Active,
			"max_active": m.MaxActive,
			"available":  m.Available,
			"completed":  m.Completed,
			"failed":     m.Failed,
		}

		switch {
		case m.Closed:
			return Unhealthy("worker pool closed", workpool.ErrPoolClosed).WithDetails(details)
		case m.Available == 0:
			return Degraded(fmt.Sprintf("all %d workers busy", m.Size)).WithDetails(details)
		default:
			return Healthy(fmt.Sprintf("%d of %d workers available", m.Available, m.Size)).WithDetails(details)
		}
	})
}
