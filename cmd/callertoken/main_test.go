package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestMintThenVerify(t *testing.T) {
	t.Setenv("CALLER_TOKEN_SIGNING_KEY", "cli-test-key")
	const addr = "0x00000000000000000000000000000000000000B1"

	out, err := execute(t, "mint", "--address", addr, "--ttl", "5m")
	require.NoError(t, err)
	signed := strings.TrimSpace(out)
	require.NotEmpty(t, signed)

	out, err = execute(t, "verify", "--token", signed)
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(out), strings.ToLower(addr))
}

func TestMintRejectsMalformedAddress(t *testing.T) {
	_, err := execute(t, "mint", "--address", "not-an-address")
	assert.ErrorContains(t, err, "invalid address")
}
