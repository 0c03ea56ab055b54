// Package health reports whether the prime service can keep answering.
//
// A Checker reports a Status: Healthy, Degraded, or Unhealthy. Two checkers
// cover the service's resources:
//
//   - MemoryChecker compares the bytes retained by the prime cache with the
//     admission budget, degrading as the cache nears the point where writes
//     are refused.
//   - NewPoolChecker reports the shared worker pool's occupancy and marks a
//     closed pool unhealthy.
//
// An Aggregator runs registered checkers in parallel under a timeout:
//
//	agg := health.NewAggregator()
//	agg.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{}, cache, ctrl))
//	agg.Register("pool", health.NewPoolChecker(pool))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// LivenessHandler, ReadinessHandler and DetailedHandler expose the results
// over HTTP as /healthz, /readyz and /health.
package health
