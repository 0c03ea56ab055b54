package secret

import "errors"

var (
	// ErrMissingEnv indicates a referenced environment variable is unset.
	ErrMissingEnv = errors.New("secret: missing environment variable")

	// ErrUnknownProvider indicates a reference to an unregistered provider.
	ErrUnknownProvider = errors.New("secret: unknown provider")

	// ErrEmptySecret indicates a provider resolved a reference to nothing.
	ErrEmptySecret = errors.New("secret: empty value")
)
