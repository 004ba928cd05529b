package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, BackendMemory, cfg.Backend)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := Config{Backend: "postgres"}
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresDataDirForBadger(t *testing.T) {
	cfg := Config{Backend: BackendBadger}
	assert.Error(t, cfg.Validate())

	cfg.DataDir = "/tmp/data"
	assert.NoError(t, cfg.Validate())
}

func TestLoadParsesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "backend: badger\ndataDir: /tmp/db\nlogLevel: debug\njsonLogs: true\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, cfg.Backend)
	assert.Equal(t, "/tmp/db", cfg.DataDir)
	assert.Equal(t, LogLevel("debug"), cfg.LogLevel)
	assert.True(t, cfg.JSONLogs)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: not-a-backend\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
