// Package config holds runtime settings for the PawFinder client and loads
// them from defaults, an optional JSON file, and the environment. Later
// sources take precedence over earlier ones.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime settings for the PawFinder auth core.
//
// Fields:
//   - AppName: human-readable app name, used in biometric prompt reasons.
//   - BackendEndpoint: base URL of the identity backend REST API.
//   - APIKey: identity backend API key appended to requests.
//   - VaultDBPath: sqlite DSN for the on-device credential vault.
//   - RequestTimeout: per-request timeout for backend calls.
//   - AutoPromptMaxFailures: consecutive failed automatic biometric prompts
//     tolerated before the controller requires an explicit tap.
type Config struct {
	AppName               string        `json:"app_name" env:"PAWFINDER_APP_NAME"`
	BackendEndpoint       string        `json:"backend_endpoint" env:"PAWFINDER_BACKEND_ENDPOINT"`
	APIKey                string        `json:"api_key" env:"PAWFINDER_API_KEY"`
	VaultDBPath           string        `json:"vault_db_path" env:"PAWFINDER_VAULT_DB"`
	RequestTimeout        time.Duration `json:"request_timeout" env:"PAWFINDER_REQUEST_TIMEOUT"`
	AutoPromptMaxFailures int           `json:"auto_prompt_max_failures" env:"PAWFINDER_AUTO_PROMPT_MAX_FAILURES"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.AppName = "PawFinder"
	c.BackendEndpoint = "https://identitytoolkit.googleapis.com/v1"
	c.VaultDBPath = "pawfinder.db"
	c.RequestTimeout = 15 * time.Second
	c.AutoPromptMaxFailures = 3
}

// Load constructs a Config: defaults, then the JSON file at jsonPath (skipped
// when empty), then environment variables. Later sources win.
func Load(jsonPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, jsonPath); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}
	return cfg, nil
}
