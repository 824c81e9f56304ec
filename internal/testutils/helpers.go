// Package testutils holds fixtures shared by the package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/codeplay/internal/config"
)

// Epoch is the start time of fake clocks in tests.
var Epoch = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

// NewConfig returns the default configuration, read from a fresh viper
// instance so the environment of other tests cannot leak in, then tweaked.
func NewConfig(t *testing.T, tweak func(*config.Config)) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(viper.New())
	require.NoError(t, err)
	if tweak != nil {
		tweak(cfg)
	}
	return cfg
}

// WriteFile creates name with contents in a fresh temp directory and
// returns its path.
func WriteFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// AssertFilePermissions checks the permission bits of path.
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)

	actualMode := info.Mode() & os.ModePerm
	require.Equal(t, expectedMode, actualMode,
		"File %s has incorrect permissions: got %o, want %o", path, actualMode, expectedMode)
}

// MaliciousPaths are output locations every path check must reject.
var MaliciousPaths = []string{
	"../escape.html",
	"../../etc/passwd",
	"/etc/galaxy.html",
	"/proc/self/environ",
	"out;rm -rf.html",
	"out|cat.html",
	"$(whoami).html",
}
