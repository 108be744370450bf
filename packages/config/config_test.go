package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"totalTimeout": 5000,
		"redirectPolicy": "lax",
		"maxRedirects": 3,
		"validateSSL": false,
		"headers": {"X-Env": "test"}
	}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.TotalTimeout)
	assert.Equal(t, "lax", cfg.RedirectPolicy)
	assert.Equal(t, 3, cfg.MaxRedirects)
	assert.False(t, cfg.GetValidateSSL())
	assert.Equal(t, "test", cfg.Headers["X-Env"])
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestFindAndLoadConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".httpcall.config.json"), []byte(`{"userAgent": "config-agent"}`), 0o644))

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "config-agent", cfg.UserAgent)
}

func TestFindAndLoadConfig_NoneFound(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestConfig_BoolDefaults(t *testing.T) {
	cfg := &Config{}
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetNoColor())

	cfg = &Config{ValidateSSL: BoolPtr(false), NoColor: BoolPtr(true)}
	assert.False(t, cfg.GetValidateSSL())
	assert.True(t, cfg.GetNoColor())
}

func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()
	opts := cfg.Options()
	assert.NotEmpty(t, opts)

	// An empty config yields no overrides.
	assert.Empty(t, (&Config{}).Options())
}
