package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Lookup backends.
const (
	BackendIPAPI = "ipapi"
	BackendMMDB  = "mmdb"
)

// Config holds runtime configuration shared by every front-end.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	Port      string `env:"PORT" envDefault:"8080"`
	GRPCPort  string `env:"GRPC_PORT" envDefault:"9090"`
	PprofAddr string `env:"PPROF_ADDR"`

	Backend     string `env:"IP2GEO_BACKEND" envDefault:"ipapi"`
	ConfigFile  string `env:"IP2GEO_CONFIG" envDefault:"config.json"`
	APIKey      string `env:"IP2GEO_API_KEY"`
	BaseURL     string `env:"IP2GEO_BASE_URL"`
	MmdbPath    string `env:"MMDB_PATH"`
	AsnMmdbPath string `env:"ASN_MMDB_PATH"`

	LookupTimeout  time.Duration `env:"LOOKUP_TIMEOUT" envDefault:"5s"`
	MaxConcurrency int           `env:"MAX_CONCURRENCY" envDefault:"0"`
	WatchConfig    bool          `env:"WATCH_CONFIG" envDefault:"true"`
}

// Load reads configuration from environment variables with defaults.
func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendIPAPI:
	case BackendMMDB:
		if c.MmdbPath == "" {
			return fmt.Errorf("MMDB_PATH is required for backend %q", BackendMMDB)
		}
	default:
		return fmt.Errorf("unknown IP2GEO_BACKEND %q", c.Backend)
	}
	if c.LookupTimeout <= 0 {
		return fmt.Errorf("invalid LOOKUP_TIMEOUT: %s", c.LookupTimeout)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("invalid MAX_CONCURRENCY: %d", c.MaxConcurrency)
	}
	return nil
}
