package auth

import "time"

// AuthMethod indicates how authentication was performed.
type AuthMethod string

const (
	AuthMethodJWT       AuthMethod = "jwt"
	AuthMethodAnonymous AuthMethod = "anonymous"
)

// Identity represents an authenticated caller.
type Identity struct {
	// Principal is the unique identifier of the caller (sub claim).
	Principal string

	// Method indicates how authentication was performed.
	Method AuthMethod

	Issuer   string
	Audience []string

	// ExpiresAt is when this identity expires. Zero means never.
	ExpiresAt time.Time

	// IssuedAt is when the token was issued.
	IssuedAt time.Time
}

// IsExpired checks if the identity has expired.
func (id *Identity) IsExpired() bool {
	if id.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(id.ExpiresAt)
}

// IsAnonymous returns true if this is an anonymous identity.
func (id *Identity) IsAnonymous() bool {
	return id.Method == AuthMethodAnonymous || id.Principal == ""
}

// AnonymousIdentity creates the identity attached to requests when
// authentication is disabled.
func AnonymousIdentity() *Identity {
	return &Identity{
		Principal: "anonymous",
		Method:    AuthMethodAnonymous,
	}
}
