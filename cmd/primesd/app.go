package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/primeops/admission"
	"github.com/jonwraymond/primeops/auth"
	"github.com/jonwraymond/primeops/cache"
	"github.com/jonwraymond/primeops/config"
	"github.com/jonwraymond/primeops/health"
	"github.com/jonwraymond/primeops/observe"
	"github.com/jonwraymond/primeops/primes"
	"github.com/jonwraymond/primeops/server"
	"github.com/jonwraymond/primeops/sieve"
	"github.com/jonwraymond/primeops/workpool"
)

// app holds the wired components of one process.
type app struct {
	cfg     *config.Config
	obs     observe.Observer
	logger  observe.Logger
	pool    *workpool.Pool
	admit   *admission.Controller
	cache   *cache.Rolling
	service *primes.Service
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	obs, err := observe.NewObserver(ctx, cfg.ObserveConfig())
	if err != nil {
		return nil, fmt.Errorf("creating observer: %w", err)
	}

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, errors.Join(err, obs.Shutdown(ctx))
	}

	a := &app{
		cfg:    cfg,
		obs:    obs,
		logger: obs.Logger(),
		pool:   workpool.New(workpool.Config{Size: cfg.Primes.Workers}),
		admit:  admission.New(cfg.Admission()),
	}
	a.cache = cache.NewRolling(a.admit)

	a.service, err = primes.NewService(primes.Config{
		Engine:     sieve.NewEngine(a.pool),
		Cache:      a.cache,
		Middleware: mw,
	})
	if err != nil {
		return nil, errors.Join(err, a.close(ctx))
	}

	a.logger.Info(ctx, "primes service ready",
		observe.Field{Key: "workers", Value: a.pool.Size()},
		observe.Field{Key: "memory_ceiling", Value: admission.FormatBytes(a.admit.Ceiling())},
		observe.Field{Key: "cache_budget", Value: admission.FormatBytes(a.admit.Budget())},
	)
	return a, nil
}

// server builds the HTTP front end with health checks and, when enabled,
// JWT authentication.
func (a *app) server() (*server.Server, error) {
	agg := health.NewAggregator()
	agg.Register("memory", health.NewMemoryChecker(a.cfg.MemoryChecker(), a.cache, a.admit))
	agg.Register("pool", health.NewPoolChecker(a.pool))

	httpCfg := a.cfg.HTTP()
	httpCfg.Health = agg
	httpCfg.Logger = a.logger

	if a.cfg.Auth.Enabled {
		authn, err := auth.NewJWTAuthenticator(a.cfg.JWT())
		if err != nil {
			return nil, err
		}
		httpCfg.Authenticator = authn
	}

	return server.New(httpCfg, a.service)
}

func (a *app) close(ctx context.Context) error {
	a.pool.Close()
	return a.obs.Shutdown(context.WithoutCancel(ctx))
}
