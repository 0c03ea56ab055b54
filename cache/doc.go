// Package cache retains the primes of the largest range computed so far.
//
// A Rolling cache holds at most one Entry: the ascending primes in
// [2, Limit]. Smaller ranges are served as sub-slices of it, larger ranges
// extend it with a delta computed from Limit+1. Every write is checked by an
// admission.Controller; a rejected write clears the cache.
//
// Slices returned by the cache share memory with the retained entry and must
// not be modified.
package cache
