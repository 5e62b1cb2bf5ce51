package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd := CreateRootCommand()
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestTokenIDAndCIDCommands(t *testing.T) {
	tokenID, err := runCommand(t, "token-id", testCIDBase16)
	require.NoError(t, err)
	assert.Equal(t, testRawTokenID, tokenID)

	identifier, err := runCommand(t, "cid", testRawTokenID)
	require.NoError(t, err)
	assert.Equal(t, testCIDBase32, identifier)

	_, err = runCommand(t, "token-id", "--scheme", "uri", testCIDBase32)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	version, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, VoucherServiceVersion, version)
}
