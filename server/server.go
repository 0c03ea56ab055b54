package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/primeops/auth"
	"github.com/jonwraymond/primeops/health"
	"github.com/jonwraymond/primeops/observe"
	"github.com/jonwraymond/primeops/primes"
)

// PrimeService answers prime requests. *primes.Service satisfies it.
type PrimeService interface {
	Primes(ctx context.Context, req primes.Request) (*primes.Response, error)
}

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address. Default: ":8080"
	Addr string

	// ReadTimeout and WriteTimeout bound a single request.
	// Defaults: 30s and 5m
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown. Default: 30s
	ShutdownTimeout time.Duration

	RateLimit RateLimitConfig

	// Authenticator guards the API routes. Nil disables authentication.
	Authenticator auth.Authenticator

	// Health serves /readyz and /health when set.
	Health *health.Aggregator

	// ServeMetrics exposes the default Prometheus registry on /metrics.
	ServeMetrics bool

	// Logger receives request logs. Default: observe.NopLogger()
	Logger observe.Logger

	// Now stamps error responses. Default: time.Now
	Now func() time.Time
}

// Server is the HTTP front end of a PrimeService.
type Server struct {
	config  Config
	service PrimeService
	echo    *echo.Echo
}

// New creates a Server and registers its routes.
func New(config Config, service PrimeService) (*Server, error) {
	if service == nil {
		return nil, ErrMissingService
	}
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 30 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Minute
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	s := &Server{config: config, service: service, echo: echo.New()}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.echo.Use(requestLogger(s.config.Logger))

	s.echo.GET("/healthz", echo.WrapHandler(health.LivenessHandler()))
	if s.config.Health != nil {
		s.echo.GET("/readyz", echo.WrapHandler(health.ReadinessHandler(s.config.Health)))
		s.echo.GET("/health", echo.WrapHandler(health.DetailedHandler(s.config.Health)))
	}
	if s.config.ServeMetrics {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	var mw []echo.MiddlewareFunc
	if s.config.RateLimit.Enabled {
		mw = append(mw, rateLimit(NewRateLimiter(s.config.RateLimit)))
	}
	mw = append(mw, authenticate(s.config.Authenticator))

	api := s.echo.Group("/api/v1", mw...)
	api.GET("/primes", s.getPrimes)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(s.config.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.config.Logger.Info(ctx, "shutting down http server", observe.Field{Key: "addr", Value: s.config.Addr})
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, description := classify(c, err)
	if code >= http.StatusInternalServerError {
		s.config.Logger.Error(c.Request().Context(), "request error",
			observe.Field{Key: "error", Value: err.Error()},
			observe.Field{Key: "status", Value: code},
		)
	}

	body := ErrorResponse{
		HTTPStatus:    code,
		Description:   description,
		ErrorThrownAt: s.config.Now(),
	}
	if err := negotiate(c, code, body); err != nil {
		s.config.Logger.Error(c.Request().Context(), "writing error response",
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
}
