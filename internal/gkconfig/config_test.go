package gkconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gecko.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "normal", cfg.RuleSet.Mode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8765, cfg.Server.Port)
	assert.Equal(t, 256, cfg.Server.ForestCacheSize)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeTempYAML(t, `
ruleset:
  mode: strict
  paths:
    - /etc/gecko/rules
log:
  level: debug
server:
  port: 9999
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "strict", cfg.RuleSet.Mode)
	assert.Equal(t, []string{"/etc/gecko/rules"}, cfg.RuleSet.Paths)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "normal", cfg.RuleSet.Mode)
}

func TestValidate_RejectsUnknownMode(t *testing.T) {
	cfg := &Config{RuleSet: RuleSetConfig{Mode: "bogus"}, Server: ServerConfig{ForestCacheSize: 1}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ruleset.mode")
}

func TestValidate_RejectsInvalidPort(t *testing.T) {
	cfg := &Config{RuleSet: RuleSetConfig{Mode: "normal"}, Server: ServerConfig{Port: 70000, ForestCacheSize: 1}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidate_RejectsNonPositiveForestCacheSize(t *testing.T) {
	cfg := &Config{RuleSet: RuleSetConfig{Mode: "normal"}, Server: ServerConfig{ForestCacheSize: 0}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forest_cache_size")
}
