package server

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jonwraymond/primeops/admission"
	"github.com/jonwraymond/primeops/auth"
	"github.com/jonwraymond/primeops/sieve"
)

// ErrRateLimited indicates a client exceeded its request rate.
var ErrRateLimited = errors.New("server: too many requests")

// ErrMissingService indicates a Config without a prime service.
var ErrMissingService = errors.New("server: prime service is required")

// backendFailure is the description of every unclassified error.
const backendFailure = "Our backend is non-functional. Please try again later."

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	XMLName       xml.Name  `json:"-" xml:"ErrorResponse"`
	HTTPStatus    int       `json:"httpStatus" xml:"httpStatus"`
	Description   string    `json:"description" xml:"description"`
	ErrorThrownAt time.Time `json:"errorThrownAt" xml:"errorThrownAt"`
}

// ParamError reports a missing or malformed query parameter.
type ParamError struct {
	Name     string
	Value    string
	Expected string
	Missing  bool
}

func (e *ParamError) Error() string {
	if e.Missing {
		return fmt.Sprintf("Required request parameter '%s' of type '%s' is missing", e.Name, e.Expected)
	}
	return fmt.Sprintf("Invalid value '%s' for parameter '%s'. Expected type: %s.", e.Value, e.Name, e.Expected)
}

// classify maps err to a status code and a client-facing description.
func classify(c echo.Context, err error) (int, string) {
	var (
		paramErr *ParamError
		httpErr  *echo.HTTPError
	)
	switch {
	case errors.As(err, &paramErr):
		return http.StatusBadRequest, paramErr.Error()
	case errors.Is(err, sieve.ErrInvalidRange), errors.Is(err, sieve.ErrUnknownAlgorithm):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, admission.ErrMemoryConstraint):
		return http.StatusInsufficientStorage, err.Error()
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests. Please slow down."
	case isAuthFailure(err):
		return http.StatusUnauthorized, err.Error()
	case errors.As(err, &httpErr):
		return classifyHTTP(c, httpErr)
	default:
		return http.StatusInternalServerError, backendFailure
	}
}

func classifyHTTP(c echo.Context, err *echo.HTTPError) (int, string) {
	switch err.Code {
	case http.StatusNotFound:
		return err.Code, fmt.Sprintf("Unknown resource for %s %s", c.Request().Method, c.Request().URL.Path)
	case http.StatusMethodNotAllowed:
		return err.Code, fmt.Sprintf("Method %s is not supported for %s", c.Request().Method, c.Request().URL.Path)
	}
	if err.Code >= http.StatusInternalServerError {
		return err.Code, backendFailure
	}
	return err.Code, fmt.Sprint(err.Message)
}

func isAuthFailure(err error) bool {
	return errors.Is(err, auth.ErrMissingCredentials) ||
		errors.Is(err, auth.ErrInvalidCredentials) ||
		errors.Is(err, auth.ErrTokenExpired) ||
		errors.Is(err, auth.ErrTokenMalformed)
}
