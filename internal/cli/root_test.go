package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "paperledger")
}

func TestInitAndStateCmds(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	out, err := runCmd(t, "--db", db, "init", "--capital", "100000")
	require.NoError(t, err)
	assert.Contains(t, out, "initialized")

	out, err = runCmd(t, "--db", db, "state")
	require.NoError(t, err)
	assert.Contains(t, out, `"cash": 100000`)
}

func TestStateBeforeInitFails(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	_, err := runCmd(t, "--db", db, "state")
	assert.Error(t, err)
}

func TestCheckCmd(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	_, err := runCmd(t, "--db", db, "init", "--capital", "100000")
	require.NoError(t, err)

	out, err := runCmd(t, "--db", db, "check",
		"--symbol", "RELIANCE-EQ", "--quantity", "20", "--entry", "500", "--stop", "485")
	require.NoError(t, err)
	assert.Contains(t, out, `"checks_total": 8`)
}

func TestCheckCmdMissingFlags(t *testing.T) {
	_, err := runCmd(t, "check")
	assert.Error(t, err)
}

func TestBadLogLevel(t *testing.T) {
	_, err := runCmd(t, "--log-level", "shouty", "version")
	assert.Error(t, err)
}

func TestSizeCmd(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	_, err := runCmd(t, "--db", db, "init", "--capital", "100000")
	require.NoError(t, err)

	out, err := runCmd(t, "--db", db, "size",
		"--entry", "2500", "--stop", "2450", "--confidence", "HIGH")
	require.NoError(t, err)
	assert.Contains(t, out, `"quantity"`)
}
