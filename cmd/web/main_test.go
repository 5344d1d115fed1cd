package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SECRET_KEY", "DEBUG", "DATABASE_URL", "ECOMM_BASE_DIR"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck_Defaults(t *testing.T) {
	clearEnv(t)
	base := t.TempDir()

	out, err := run(t, "check", "--base-dir", base)
	require.NoError(t, err)
	assert.Contains(t, out, "database:   sqlite")
	assert.Contains(t, out, "WARNING: SECRET_KEY is the placeholder default")
	assert.Contains(t, out, "OK")

	_, err = run(t, "check", "--base-dir", base, "--deploy")
	assert.EqualError(t, err, "deploy warnings present")
}

func TestCheck_ReadsSettingsFile(t *testing.T) {
	clearEnv(t)
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "conf"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "conf", "settings.yaml"),
		[]byte("secret_key: from-yaml\nhosts:\n  extra: [shop.example.com]\n"), 0o644))

	out, err := run(t, "check", "--base-dir", base, "--deploy")
	require.NoError(t, err)
	assert.Contains(t, out, "shop.example.com")
	assert.NotContains(t, out, "WARNING")
}

func TestCheck_BadDebug(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEBUG", "maybe")

	_, err := run(t, "check", "--base-dir", t.TempDir())
	assert.ErrorContains(t, err, "DEBUG")
}

func TestCheck_MalformedDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "ftp://nope")

	_, err := run(t, "check", "--base-dir", t.TempDir())
	assert.ErrorContains(t, err, "DATABASE_URL")
}
