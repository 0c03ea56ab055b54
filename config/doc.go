// Package config loads process configuration for primesd.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// YAML or TOML file, environment variables prefixed with PRIMEOPS_ (dots
// become underscores, so server.addr is PRIMEOPS_SERVER_ADDR), and command
// line flags bound by the caller.
package config
