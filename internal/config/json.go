package config

import (
	"encoding/json"
	"os"
	"time"
)

// jsonConfig is a DTO used exclusively for JSON unmarshalling. Durations are
// accepted as strings like "15s". Zero-valued fields leave the existing
// Config value untouched so the file can be partial.
type jsonConfig struct {
	AppName               string `json:"app_name"`
	BackendEndpoint       string `json:"backend_endpoint"`
	APIKey                string `json:"api_key"`
	VaultDBPath           string `json:"vault_db_path"`
	RequestTimeout        string `json:"request_timeout"`
	AutoPromptMaxFailures *int   `json:"auto_prompt_max_failures"`
}

func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	if jc.AppName != "" {
		cfg.AppName = jc.AppName
	}
	if jc.BackendEndpoint != "" {
		cfg.BackendEndpoint = jc.BackendEndpoint
	}
	if jc.APIKey != "" {
		cfg.APIKey = jc.APIKey
	}
	if jc.VaultDBPath != "" {
		cfg.VaultDBPath = jc.VaultDBPath
	}
	if jc.RequestTimeout != "" {
		d, err := time.ParseDuration(jc.RequestTimeout)
		if err != nil {
			return err
		}
		cfg.RequestTimeout = d
	}
	if jc.AutoPromptMaxFailures != nil {
		cfg.AutoPromptMaxFailures = *jc.AutoPromptMaxFailures
	}
	return nil
}
