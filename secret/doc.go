// Package secret resolves secret values referenced from configuration.
//
// A configured value is first expanded strictly against the environment (see
// ExpandEnvStrict) and then, if it is a reference, resolved by a provider:
//
//	s3cret                           used as is
//	${PRIMEOPS_JWT_SECRET}           taken from the environment
//	secretref:env:PRIMEOPS_JWT_KEY   taken from the environment by name
//	secretref:file:/run/secrets/jwt  read from a file, trailing newline removed
package secret
