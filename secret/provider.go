package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvProvider resolves a reference as an environment variable name.
type EnvProvider struct{}

// Name returns "env".
func (EnvProvider) Name() string { return "env" }

// Resolve returns the value of the variable ref.
func (EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, ref)
	}
	return v, nil
}

// FileProvider resolves a reference as a file path, such as a mounted
// container secret.
type FileProvider struct{}

// Name returns "file".
func (FileProvider) Name() string { return "file" }

// Resolve returns the file's content without its trailing line break.
func (FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("secret: reading %s: %w", ref, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

var (
	_ Provider = EnvProvider{}
	_ Provider = FileProvider{}
)
