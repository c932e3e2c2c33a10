package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/slipscan/internal/config"
	"github.com/MeKo-Tech/slipscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigInitCommand(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	target := filepath.Join(dir, "conf", "slipscan.yaml")

	out, _, err := executeCommand(t, "config", "init", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration written to "+target)
	assert.True(t, testutil.FileExists(target))

	_, _, err = executeCommand(t, "config", "init", target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestConfigInitOutputIsLoadable(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	target := filepath.Join(dir, "slipscan.yaml")
	_, _, err := executeCommand(t, "config", "init", target)
	require.NoError(t, err)

	out, _, err := executeCommand(t, "--config", target, "config", "show")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# loaded from "+target))
	assert.Contains(t, out, "log_level: info")
}

func TestConfigShowReflectsFile(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	target := testutil.WriteFile(t, dir, "custom.yaml", []byte("output:\n  format: json\nbatch:\n  workers: 6\n"))

	out, _, err := executeCommand(t, "--config", target, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "format: json")
	assert.Contains(t, out, "workers: 6")
}

func TestConfigShowRejectsInvalidFile(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	target := testutil.WriteFile(t, dir, "bad.yaml", []byte("batch:\n  workers: 0\n"))

	_, _, err := executeCommand(t, "--config", target, "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid batch workers")
}

func TestConfigPathsCommand(t *testing.T) {
	out, _, err := executeCommand(t, "config", "paths")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(config.GetConfigSearchPaths(), "\n")+"\n", out)
}
