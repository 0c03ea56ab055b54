package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/primeops/auth"
	"github.com/jonwraymond/primeops/server"
	"github.com/jonwraymond/primeops/sieve"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PRIMEOPS_OBSERVE_LOGGING_ENABLED", "false")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func decodeLines(t *testing.T, out string) []server.PrimesResponse {
	t.Helper()
	var resps []server.PrimesResponse
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var r server.PrimesResponse
		require.NoError(t, json.Unmarshal([]byte(line), &r))
		resps = append(resps, r)
	}
	return resps
}

func TestCompute(t *testing.T) {
	out, err := run(t, "compute", "--limit", "10", "--show", "--algorithm", "concurrent-segmented-sieve")
	require.NoError(t, err)

	resps := decodeLines(t, out)
	require.Len(t, resps, 1)
	assert.Equal(t, "CONCURRENT_SEGMENTED_SIEVE", resps[0].Algorithm)
	assert.Equal(t, uint32(4), resps[0].NumOfPrimes)
	assert.Equal(t, []uint64{2, 3, 5, 7}, resps[0].Primes)
}

func TestCompute_CountOnlyByDefault(t *testing.T) {
	out, err := run(t, "compute", "--limit", "150")
	require.NoError(t, err)

	resps := decodeLines(t, out)
	require.Len(t, resps, 1)
	assert.Equal(t, "NAIVE_TRIAL_DIVISION", resps[0].Algorithm)
	assert.Equal(t, uint32(35), resps[0].NumOfPrimes)
	assert.Empty(t, resps[0].Primes)
}

func TestCompute_CacheAcrossRepeats(t *testing.T) {
	out, err := run(t, "compute", "--limit", "20", "--cache", "--repeat", "2")
	require.NoError(t, err)

	resps := decodeLines(t, out)
	require.Len(t, resps, 2)
	assert.False(t, resps[0].Cache)
	assert.True(t, resps[1].Cache)
}

func TestCompute_Errors(t *testing.T) {
	_, err := run(t, "compute", "--limit", "1")
	assert.ErrorIs(t, err, sieve.ErrInvalidRange)

	_, err = run(t, "compute", "--limit", "10", "--algorithm", "bogus")
	assert.ErrorIs(t, err, sieve.ErrUnknownAlgorithm)

	_, err = run(t, "compute")
	assert.Error(t, err)

	_, err = run(t, "compute", "--limit", "10", "--repeat", "0")
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	_, err := run(t, "token", "--subject", "alice")
	assert.ErrorIs(t, err, auth.ErrMissingSecret)

	t.Setenv("PRIMEOPS_AUTH_SECRET", "cli-secret")
	t.Setenv("PRIMEOPS_AUTH_ISSUER", "primeops")
	out, err := run(t, "token", "--subject", "alice", "--ttl", "10m")
	require.NoError(t, err)

	authn, err := auth.NewJWTAuthenticator(auth.JWTConfig{Secret: []byte("cli-secret"), Issuer: "primeops"})
	require.NoError(t, err)
	result, err := authn.Authenticate(context.Background(), &auth.AuthRequest{
		Headers: map[string][]string{"Authorization": {"Bearer " + strings.TrimSpace(out)}},
	})
	require.NoError(t, err)
	require.True(t, result.Authenticated, "error: %v", result.Error)
	assert.Equal(t, "alice", result.Identity.Principal)
}
