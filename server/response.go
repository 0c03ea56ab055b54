package server

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jonwraymond/primeops/primes"
)

// PrimesResponse is the wire form of primes.Response.
type PrimesResponse struct {
	XMLName     xml.Name  `json:"-" xml:"PrimeNumberResponse"`
	Algorithm   string    `json:"algorithm" xml:"algorithm"`
	Cache       bool      `json:"cache" xml:"cache"`
	ExecTimeNs  uint64    `json:"execTimeInNs" xml:"execTimeInNs"`
	ExecTimeMs  uint64    `json:"execTimeInMs" xml:"execTimeInMs"`
	Timestamp   time.Time `json:"timestamp" xml:"timestamp"`
	NumOfPrimes uint32    `json:"numOfPrimes" xml:"numOfPrimes"`
	Primes      []uint64  `json:"primes" xml:"primes>prime"`
}

// NewPrimesResponse converts r to its wire form.
func NewPrimesResponse(r *primes.Response) PrimesResponse {
	return PrimesResponse{
		Algorithm:   string(r.Algorithm),
		Cache:       r.CacheHit,
		ExecTimeNs:  r.ExecNanos,
		ExecTimeMs:  r.ExecMillis,
		Timestamp:   r.Timestamp,
		NumOfPrimes: r.PrimeCount,
		Primes:      r.Primes,
	}
}

// wantsXML reports whether the client prefers XML over JSON.
func wantsXML(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationXML) || strings.Contains(accept, echo.MIMETextXML)
}

// negotiate writes v as XML or JSON depending on the Accept header.
func negotiate(c echo.Context, code int, v any) error {
	if wantsXML(c) {
		return c.XML(code, v)
	}
	return c.JSON(code, v)
}
