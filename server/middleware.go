package server

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jonwraymond/primeops/auth"
	"github.com/jonwraymond/primeops/observe"
)

// requestLogger logs every request after the error handler has written the
// response, so the logged status is the one the client saw.
func requestLogger(logger observe.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			fields := []observe.Field{
				{Key: "method", Value: req.Method},
				{Key: "path", Value: req.URL.Path},
				{Key: "status", Value: status},
				{Key: "duration_ms", Value: float64(time.Since(start).Microseconds()) / 1000},
				{Key: "remote_ip", Value: c.RealIP()},
			}
			if p := auth.PrincipalFromContext(req.Context()); p != "" {
				fields = append(fields, observe.Field{Key: "principal", Value: p})
			}

			switch {
			case status >= 500:
				logger.Error(req.Context(), "request failed", fields...)
			case status >= 400:
				logger.Warn(req.Context(), "request rejected", fields...)
			default:
				logger.Info(req.Context(), "request completed", fields...)
			}
			return nil
		}
	}
}

// rateLimit rejects clients, keyed by their real IP, that exceed rl.
func rateLimit(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				return ErrRateLimited
			}
			return next(c)
		}
	}
}

// authenticate attaches the caller's identity to the request context. A nil
// authenticator admits every caller as anonymous.
func authenticate(a auth.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			identity := auth.AnonymousIdentity()

			if a != nil {
				result, err := a.Authenticate(req.Context(), &auth.AuthRequest{Headers: req.Header})
				if err != nil {
					return fmt.Errorf("server: authenticating request: %w", err)
				}
				if !result.Authenticated {
					c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
					return result.Error
				}
				identity = result.Identity
			}

			c.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), identity)))
			return next(c)
		}
	}
}
