package auth

import "context"

// Authenticator validates credentials and returns an identity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Authenticate returns (nil, error) for internal errors;
//   returns (AuthResult, nil) for auth failures (check result.Authenticated).
type Authenticator interface {
	// Name returns a unique identifier for this authenticator.
	Name() string

	// Authenticate validates credentials and returns a result.
	Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error)
}

// AuthRequest contains the information needed for authentication.
type AuthRequest struct {
	// Headers contains the HTTP request headers.
	Headers map[string][]string
}

// GetHeader returns the first value for a header, or empty string.
func (r *AuthRequest) GetHeader(key string) string {
	if r.Headers == nil {
		return ""
	}
	values := r.Headers[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// AuthResult is the result of an authentication attempt.
type AuthResult struct {
	// Authenticated is true if authentication succeeded.
	Authenticated bool

	// Identity is the authenticated identity (only if Authenticated=true).
	Identity *Identity

	// Error is the authentication error (only if Authenticated=false).
	Error error
}

// AuthSuccess creates a successful authentication result.
func AuthSuccess(identity *Identity) *AuthResult {
	return &AuthResult{Authenticated: true, Identity: identity}
}

// AuthFailure creates a failed authentication result.
func AuthFailure(err error) *AuthResult {
	return &AuthResult{Authenticated: false, Error: err}
}
