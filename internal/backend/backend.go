package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/TomasB/ip2geo/internal/config"
	"github.com/TomasB/ip2geo/internal/data"
	"github.com/TomasB/ip2geo/internal/engine"
	"github.com/TomasB/ip2geo/internal/ipapi"
)

// Backend is an opened lookup capability plus its readiness probe.
type Backend struct {
	Name   string
	Lookup data.Lookup
	Ready  func() error
}

// Close releases the lookup resources.
func (b *Backend) Close() error {
	return b.Lookup.Close()
}

// Open builds the lookup backend selected by cfg. For ip-api the key comes
// from the environment or the credentials file; when cfg.WatchConfig is set
// and no environment key overrides it, the file is watched until ctx is done.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.Backend {
	case config.BackendMMDB:
		reader, err := data.NewMmdbReader(cfg.MmdbPath, cfg.AsnMmdbPath)
		if err != nil {
			return nil, err
		}
		logger.Info("MMDB loaded", "path", cfg.MmdbPath, "asn_path", cfg.AsnMmdbPath)
		return &Backend{Name: cfg.Backend, Lookup: reader, Ready: reader.Ready}, nil

	case config.BackendIPAPI:
		key, err := cfg.ResolveAPIKey()
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		if key == "" {
			logger.Warn("no API key configured; using the free endpoint", "config_file", cfg.ConfigFile)
		}

		opts := []ipapi.Option{
			ipapi.WithHTTPClient(&http.Client{}),
			ipapi.WithTimeout(cfg.LookupTimeout),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, ipapi.WithBaseURL(cfg.BaseURL))
		}
		client := ipapi.NewClient(key, opts...)

		if cfg.WatchConfig && cfg.APIKey == "" && cfg.ConfigFile != "" {
			err := config.WatchCredentials(ctx, cfg.ConfigFile, logger, func(c config.Credentials) {
				client.SetKey(c.APIKey)
			})
			if err != nil {
				logger.Warn("credentials watch disabled", "error", err)
			}
		}
		return &Backend{Name: cfg.Backend, Lookup: client}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// NewEngine opens the backend and wraps it in an engine configured from cfg.
func NewEngine(ctx context.Context, cfg config.Config, logger *slog.Logger) (*engine.Engine, *Backend, error) {
	b, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	eng, err := engine.New(b.Lookup,
		engine.WithLogger(logger),
		engine.WithTimeout(cfg.LookupTimeout),
		engine.WithMaxConcurrency(cfg.MaxConcurrency),
	)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return eng, b, nil
}
