package cache_test

import (
	"fmt"

	"github.com/jonwraymond/primeops/admission"
	"github.com/jonwraymond/primeops/cache"
)

func ExampleRolling() {
	c := cache.NewRolling(admission.New(admission.Config{
		Ceiling: admission.FixedCeiling(1 << 20),
	}))

	_ = c.Store(10, []uint64{2, 3, 5, 7})

	// Extend with the primes in (10, 20].
	merged, _ := c.Extend(20, []uint64{11, 13, 17, 19})
	fmt.Println(merged)

	// Smaller ranges are served from the retained entry.
	sub, ok := c.Slice(2, 12)
	fmt.Println(sub, ok)
	fmt.Println(c.ByteSize())
	// Output:
	// [2 3 5 7 11 13 17 19]
	// [2 3 5 7 11] true
	// 64
}
