package backend

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TomasB/ip2geo/internal/config"
	"github.com/TomasB/ip2geo/internal/engine"
	"github.com/TomasB/ip2geo/internal/ipapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEngineIPAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "file-key", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"status":"success","query":"8.8.8.8","country":"United States"}`))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_key":"file-key"}`), 0o600))

	cfg := config.Config{
		Backend:       config.BackendIPAPI,
		ConfigFile:    path,
		BaseURL:       srv.URL,
		LookupTimeout: time.Second,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, b, err := NewEngine(ctx, cfg, discardLogger())
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, config.BackendIPAPI, b.Name)
	assert.Nil(t, b.Ready)

	results, err := eng.RunBatch(ctx, []string{"8.8.8.8"})
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeSuccess, results[0].Outcome)
	assert.Equal(t, "United States", results[0].Record.Country)
}

func TestOpenIPAPIWatchesCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_key":"one"}`), 0o600))

	cfg := config.Config{
		Backend:       config.BackendIPAPI,
		ConfigFile:    path,
		LookupTimeout: time.Second,
		WatchConfig:   true,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := Open(ctx, cfg, discardLogger())
	require.NoError(t, err)
	client := b.Lookup.(*ipapi.Client)
	assert.Equal(t, "one", client.Key())

	require.NoError(t, os.WriteFile(path, []byte(`{"api_key":"two"}`), 0o600))
	assert.Eventually(t, func() bool { return client.Key() == "two" }, 5*time.Second, 20*time.Millisecond)
}

func TestOpenEnvKeyWins(t *testing.T) {
	cfg := config.Config{
		Backend:       config.BackendIPAPI,
		ConfigFile:    filepath.Join(t.TempDir(), "missing.json"),
		APIKey:        "env-key",
		LookupTimeout: time.Second,
	}

	b, err := Open(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, "env-key", b.Lookup.(*ipapi.Client).Key())
}

func TestOpenMMDBMissingFile(t *testing.T) {
	cfg := config.Config{
		Backend:       config.BackendMMDB,
		MmdbPath:      "/nonexistent/path.mmdb",
		LookupTimeout: time.Second,
	}

	_, err := Open(context.Background(), cfg, discardLogger())
	assert.Error(t, err)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.Config{Backend: "whois"}, discardLogger())
	assert.Error(t, err)
}
