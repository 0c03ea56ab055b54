package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jonwraymond/primeops/auth"
	"github.com/jonwraymond/primeops/config"
	"github.com/jonwraymond/primeops/observe"
	"github.com/jonwraymond/primeops/primes"
	"github.com/jonwraymond/primeops/server"
	"github.com/jonwraymond/primeops/sieve"
)

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	var configPath string

	root := &cobra.Command{
		Use:          "primesd",
		Short:        "Prime number computation service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, v, configPath)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "configuration file (YAML or TOML)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.Int("workers", 0, "segment worker pool size (0 uses GOMAXPROCS)")
	mustBind(v, "observe.logging.level", flags.Lookup("log-level"))
	mustBind(v, "primes.workers", flags.Lookup("workers"))

	root.AddCommand(newServeCmd(v, &configPath))
	root.AddCommand(newComputeCmd(v, &configPath))
	root.AddCommand(newTokenCmd(v, &configPath))
	return root
}

func newServeCmd(v *viper.Viper, configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the primes HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, v, *configPath)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	mustBind(v, "server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func runServe(cmd *cobra.Command, v *viper.Viper, configPath string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}

	srv, err := a.server()
	if err != nil {
		return errors.Join(err, a.close(ctx))
	}

	a.logger.Info(ctx, "listening", observe.Field{Key: "addr", Value: cfg.Server.Addr})
	return errors.Join(srv.Run(ctx), a.close(ctx))
}

func newComputeCmd(v *viper.Viper, configPath *string) *cobra.Command {
	var (
		limit     uint64
		algorithm string
		useCache  bool
		show      bool
		repeat    int
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute primes up to a limit and print the result as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			alg, err := sieve.ParseAlgorithm(algorithm)
			if err != nil {
				return err
			}
			if repeat < 1 {
				return fmt.Errorf("--repeat must be at least 1, got %d", repeat)
			}

			cfg, err := config.Load(v, *configPath)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for range repeat {
				resp, err := a.service.Primes(ctx, primes.Request{
					Limit:      limit,
					Algorithm:  alg,
					UseCache:   useCache,
					ShowPrimes: show,
				})
				if err != nil {
					return errors.Join(err, a.close(ctx))
				}
				if err := enc.Encode(server.NewPrimesResponse(resp)); err != nil {
					return errors.Join(err, a.close(ctx))
				}
			}
			return a.close(ctx)
		},
	}

	f := cmd.Flags()
	f.Uint64Var(&limit, "limit", 0, "inclusive upper bound, at least 2")
	f.StringVar(&algorithm, "algorithm", string(sieve.DefaultAlgorithm), "algorithm name or slug")
	f.BoolVar(&useCache, "cache", false, "serve through the incremental cache")
	f.BoolVar(&show, "show", false, "print the primes, not only their count")
	f.IntVar(&repeat, "repeat", 1, "number of times to run the request in this process")
	_ = cmd.MarkFlagRequired("limit")
	return cmd
}

func newTokenCmd(v *viper.Viper, configPath *string) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with the configured auth secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, *configPath)
			if err != nil {
				return err
			}
			authn, err := auth.NewJWTAuthenticator(cfg.JWT())
			if err != nil {
				return err
			}
			token, err := authn.Issue(subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject (sub claim)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime, 0 for no expiry")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag.Name, err))
	}
}
