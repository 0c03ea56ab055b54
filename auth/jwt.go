package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var hmacMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// JWTConfig configures the JWT authenticator.
type JWTConfig struct {
	// Secret is the shared HMAC signing key. Required.
	Secret []byte

	// Issuer is the expected token issuer (iss claim). Empty skips the check.
	Issuer string

	// Audience is the expected token audience (aud claim). Empty skips the
	// check.
	Audience string

	// Leeway tolerates clock skew when checking exp, nbf and iat.
	Leeway time.Duration

	// HeaderName is the header containing the token.
	// Default: "Authorization"
	HeaderName string

	// TokenPrefix is the prefix before the token in the header.
	// Default: "Bearer "
	TokenPrefix string

	// Now overrides the clock. Default: time.Now
	Now func() time.Time
}

// Validate validates the configuration.
func (c *JWTConfig) Validate() error {
	if len(c.Secret) == 0 {
		return ErrMissingSecret
	}
	if c.Leeway < 0 {
		return fmt.Errorf("auth: leeway must not be negative, got %s", c.Leeway)
	}
	return nil
}

// JWTAuthenticator validates HMAC-signed bearer tokens and can mint them.
type JWTAuthenticator struct {
	config JWTConfig
	parser *jwt.Parser
}

// NewJWTAuthenticator creates a new JWT authenticator.
func NewJWTAuthenticator(config JWTConfig) (*JWTAuthenticator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.HeaderName == "" {
		config.HeaderName = "Authorization"
	}
	if config.TokenPrefix == "" {
		config.TokenPrefix = "Bearer "
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(hmacMethods),
		jwt.WithLeeway(config.Leeway),
		jwt.WithTimeFunc(config.Now),
		jwt.WithIssuedAt(),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	return &JWTAuthenticator{
		config: config,
		parser: jwt.NewParser(opts...),
	}, nil
}

// Name returns "jwt".
func (a *JWTAuthenticator) Name() string {
	return "jwt"
}

// Authenticate validates the bearer token in the configured header.
func (a *JWTAuthenticator) Authenticate(_ context.Context, req *AuthRequest) (*AuthResult, error) {
	header := req.GetHeader(a.config.HeaderName)
	if header == "" {
		return AuthFailure(ErrMissingCredentials), nil
	}

	tokenString, ok := strings.CutPrefix(header, a.config.TokenPrefix)
	if !ok {
		return AuthFailure(ErrMissingCredentials), nil
	}
	tokenString = strings.TrimSpace(tokenString)

	claims := &jwt.RegisteredClaims{}
	_, err := a.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return a.config.Secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return AuthFailure(ErrTokenExpired), nil
	case errors.Is(err, jwt.ErrTokenMalformed):
		return AuthFailure(ErrTokenMalformed), nil
	default:
		return AuthFailure(fmt.Errorf("%w: %v", ErrInvalidCredentials, err)), nil
	}

	if claims.Subject == "" {
		return AuthFailure(fmt.Errorf("%w: missing subject", ErrInvalidCredentials)), nil
	}

	return AuthSuccess(buildIdentity(claims)), nil
}

// Issue signs a token for subject with the configured issuer and audience.
// A zero ttl issues a token without an expiry.
func (a *JWTAuthenticator) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidCredentials)
	}

	now := a.config.Now()
	claims := jwt.RegisteredClaims{
		Subject:  subject,
		Issuer:   a.config.Issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if a.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{a.config.Audience}
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.config.Secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

func buildIdentity(claims *jwt.RegisteredClaims) *Identity {
	identity := &Identity{
		Principal: claims.Subject,
		Method:    AuthMethodJWT,
		Issuer:    claims.Issuer,
		Audience:  claims.Audience,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	return identity
}

var _ Authenticator = (*JWTAuthenticator)(nil)
