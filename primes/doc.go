// Package primes answers prime requests, choosing between a direct
// computation and the incremental cache.
//
// A cached request for limit is served, in order of preference, by:
//
//   - an exact cache hit;
//   - a sub-slice of a retained entry above limit;
//   - extending a retained entry below limit with the primes in
//     (entry.Limit, limit], computed by the requested algorithm;
//   - a full computation of [2, limit] when nothing is retained.
//
// The first two report CacheHit. The cached path holds one lock from lookup
// to commit, so concurrent requests never race on the retained entry. A cache
// write refused by admission control is logged and counted; the computed
// primes are still returned.
package primes
