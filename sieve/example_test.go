package sieve_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/primeops/sieve"
	"github.com/jonwraymond/primeops/workpool"
)

func ExampleEngine_Compute() {
	pool := workpool.New(workpool.Config{Size: 2})
	defer pool.Close()

	engine := sieve.NewEngine(pool)
	primes, err := engine.Compute(context.Background(), sieve.AlgorithmConcurrentSegmented, 2, 30)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(primes)
	// Output:
	// [2 3 5 7 11 13 17 19 23 29]
}

func ExampleSegmentedBitset() {
	primes, _ := sieve.SegmentedBitset(100, 130)
	fmt.Println(primes)
	// Output:
	// [101 103 107 109 113 127]
}

func ExampleParseAlgorithm() {
	alg, _ := sieve.ParseAlgorithm("sieve-of-eratosthenes")
	fmt.Println(alg, alg.Slug())

	_, err := sieve.ParseAlgorithm("bogo")
	fmt.Println(errors.Is(err, sieve.ErrUnknownAlgorithm))
	// Output:
	// SIEVE_OF_ERATOSTHENES sieve-of-eratosthenes
	// true
}

func ExampleEstimateCount() {
	_, err := sieve.EstimateCount(1)
	fmt.Println(errors.Is(err, sieve.ErrInvalidRange))
	// Output:
	// true
}
