package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergeflow/mergeflow/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err, "a missing config file is not an error")

	assert.Equal(t, "http://localhost:8000", cfg.APIBase)
	assert.Equal(t, "file", cfg.Store)
	assert.Equal(t, 1500*time.Millisecond, cfg.PollInterval())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"api_base: https://merge.internal\nstore: redis\nredis_addr: redis:6379\npoll_interval_ms: 500\n",
	), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://merge.internal", cfg.APIBase)
	assert.Equal(t, "redis", cfg.Store)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base: https://from-file\n"), 0644))

	t.Setenv("MERGEFLOW_API_BASE", "https://from-env")
	t.Setenv("MERGEFLOW_STORE", "memory")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://from-env", cfg.APIBase)
	assert.Equal(t, "memory", cfg.Store)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base: [unclosed"), 0644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_UnknownStore(t *testing.T) {
	t.Setenv("MERGEFLOW_STORE", "cassandra")

	_, err := config.Load("")
	assert.ErrorContains(t, err, "unknown store backend")
}
