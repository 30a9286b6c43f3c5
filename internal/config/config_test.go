package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "9090", cfg.GRPCPort)
	assert.Equal(t, BackendIPAPI, cfg.Backend)
	assert.Equal(t, "config.json", cfg.ConfigFile)
	assert.Equal(t, 5*time.Second, cfg.LookupTimeout)
	assert.Equal(t, 0, cfg.MaxConcurrency)
	assert.True(t, cfg.WatchConfig)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IP2GEO_BACKEND", " MMDB ")
	t.Setenv("MMDB_PATH", "/data/city.mmdb")
	t.Setenv("LOOKUP_TIMEOUT", "750ms")
	t.Setenv("MAX_CONCURRENCY", "16")
	t.Setenv("WATCH_CONFIG", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMMDB, cfg.Backend)
	assert.Equal(t, "/data/city.mmdb", cfg.MmdbPath)
	assert.Equal(t, 750*time.Millisecond, cfg.LookupTimeout)
	assert.Equal(t, 16, cfg.MaxConcurrency)
	assert.False(t, cfg.WatchConfig)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "mmdb without path", env: map[string]string{"IP2GEO_BACKEND": "mmdb"}},
		{name: "unknown backend", env: map[string]string{"IP2GEO_BACKEND": "carrier-pigeon"}},
		{name: "zero timeout", env: map[string]string{"LOOKUP_TIMEOUT": "0s"}},
		{name: "bad duration", env: map[string]string{"LOOKUP_TIMEOUT": "soon"}},
		{name: "negative concurrency", env: map[string]string{"MAX_CONCURRENCY": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestReadCredentials(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"api_key": " abc123 "}`), 0o600))
	creds, err := ReadCredentials(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "abc123", creds.APIKey)

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("api_key: xyz\n"), 0o600))
	creds, err = ReadCredentials(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "xyz", creds.APIKey)

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"api_key": [`), 0o600))
	_, err = ReadCredentials(badPath)
	assert.Error(t, err)
}

func TestResolveAPIKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_key":"from-file"}`), 0o600))

	key, err := Config{ConfigFile: path}.ResolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "from-file", key)

	key, err = Config{ConfigFile: path, APIKey: "from-env"}.ResolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	key, err = Config{ConfigFile: filepath.Join(dir, "missing.json")}.ResolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "", key)
}

func TestWatchCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_key":"old"}`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys := make(chan string, 16)
	require.NoError(t, WatchCredentials(ctx, path, nil, func(c Credentials) {
		keys <- c.APIKey
	}))

	require.NoError(t, os.WriteFile(path, []byte(`{"api_key":"new"}`), 0o600))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case k := <-keys:
			if k == "new" {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for credentials reload")
		}
	}
}
