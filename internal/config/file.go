package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Credentials is the content of the credentials file. The file is usually
// JSON ({"api_key": "..."}); YAML is accepted as well.
type Credentials struct {
	APIKey string `yaml:"api_key"`
}

// ReadCredentials parses the credentials file at path. A missing file is
// reported as fs.ErrNotExist so callers can fall back to no key.
func ReadCredentials(path string) (Credentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, err
	}
	var creds Credentials
	if err := yaml.Unmarshal(raw, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse %s: %w", path, err)
	}
	creds.APIKey = strings.TrimSpace(creds.APIKey)
	return creds, nil
}

// ResolveAPIKey returns the key to use: the environment override when set,
// otherwise the credentials file value. A missing file yields "" and no error.
func (c Config) ResolveAPIKey() (string, error) {
	if c.APIKey != "" {
		return strings.TrimSpace(c.APIKey), nil
	}
	if c.ConfigFile == "" {
		return "", nil
	}
	creds, err := ReadCredentials(c.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return creds.APIKey, nil
}
