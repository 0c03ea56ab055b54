package secret

import (
	"context"
	"fmt"
	"strings"
)

const refPrefix = "secretref:"

// Resolver resolves secret references using registered providers.
//
// Values with the prefix "secretref:" are resolved via providers.
// Other values are returned after strict environment expansion.
type Resolver struct {
	providers map[string]Provider
}

// NewResolver creates a resolver with the given providers. Later providers
// replace earlier ones of the same name.
func NewResolver(providers ...Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// DefaultResolver returns a resolver with the env and file providers.
func DefaultResolver() *Resolver {
	return NewResolver(EnvProvider{}, FileProvider{})
}

// ResolveValue expands environment variables in value and resolves it if it
// is a secret reference. A reference that resolves to an empty string is an
// error.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}

	providerName, ref, ok := ParseSecretRef(expanded)
	if !ok {
		return expanded, nil
	}

	provider, ok := r.providers[providerName]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, providerName)
	}
	resolved, err := provider.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if resolved == "" {
		return "", fmt.Errorf("%w: provider %q", ErrEmptySecret, providerName)
	}
	return resolved, nil
}

// ParseSecretRef parses a full secret reference of the form:
//
//	secretref:<provider>:<ref>
func ParseSecretRef(value string) (provider string, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, refPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, found = strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}
