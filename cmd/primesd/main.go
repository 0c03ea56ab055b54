// Command primesd serves and computes prime numbers.
//
// Usage:
//
//	primesd [serve] [--config primesd.yaml] [--addr :8080]
//	primesd compute --limit 1000 [--algorithm SIEVE_OF_ERATOSTHENES] [--cache] [--show]
//	primesd token --subject alice [--ttl 1h]
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
