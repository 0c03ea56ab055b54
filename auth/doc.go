// Package auth authenticates API callers with HMAC-signed JWT bearer tokens.
//
// A JWTAuthenticator validates the Authorization header of a request and
// returns an Identity; handlers read it back with IdentityFromContext.
// Authentication is optional for the primes API and is enabled by configuring
// a shared secret.
package auth
