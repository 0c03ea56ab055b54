package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jonwraymond/primeops/observe"
	"github.com/jonwraymond/primeops/primes"
	"github.com/jonwraymond/primeops/sieve"
)

// getPrimes serves GET /api/v1/primes.
func (s *Server) getPrimes(c echo.Context) error {
	req, err := parsePrimesRequest(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	resp, err := s.service.Primes(ctx, req)
	if err != nil {
		return err
	}

	s.config.Logger.Info(ctx, "finished calculating primes",
		observe.Field{Key: "limit", Value: req.Limit},
		observe.Field{Key: "algorithm", Value: string(req.Algorithm)},
		observe.Field{Key: "cache_hit", Value: resp.CacheHit},
		observe.Field{Key: "count", Value: resp.PrimeCount},
	)
	return negotiate(c, http.StatusOK, NewPrimesResponse(resp))
}

func parsePrimesRequest(c echo.Context) (primes.Request, error) {
	req := primes.Request{
		Algorithm:  sieve.DefaultAlgorithm,
		ShowPrimes: true,
	}

	raw := c.QueryParam("limit")
	if raw == "" {
		return req, &ParamError{Name: "limit", Expected: "uint64", Missing: true}
	}
	limit, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return req, &ParamError{Name: "limit", Value: raw, Expected: "uint64"}
	}
	req.Limit = limit

	if raw := c.QueryParam("algorithm"); raw != "" {
		alg, err := sieve.ParseAlgorithm(raw)
		if err != nil {
			return req, err
		}
		req.Algorithm = alg
	}

	if req.UseCache, err = boolParam(c, "cache", false); err != nil {
		return req, err
	}
	if req.ShowPrimes, err = boolParam(c, "showPrimes", true); err != nil {
		return req, err
	}
	return req, nil
}

func boolParam(c echo.Context, name string, def bool) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, &ParamError{Name: name, Value: raw, Expected: "bool"}
	}
	return v, nil
}
