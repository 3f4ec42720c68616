package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "PawFinder", cfg.AppName)
	require.Equal(t, 15*time.Second, cfg.RequestTimeout)
	require.Equal(t, 3, cfg.AutoPromptMaxFailures)
	require.NotEmpty(t, cfg.VaultDBPath)
}

func TestLoad_JSONOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `{
		"backend_endpoint": "http://localhost:9099/v1",
		"api_key": "test-key",
		"request_timeout": "3s"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "http://localhost:9099/v1", cfg.BackendEndpoint)
	require.Equal(t, "test-key", cfg.APIKey)
	require.Equal(t, 3*time.Second, cfg.RequestTimeout)
	// untouched fields keep their defaults
	require.Equal(t, "PawFinder", cfg.AppName)
}

func TestLoad_EnvOverridesJSON(t *testing.T) {
	path := writeConfigFile(t, `{"api_key": "from-json"}`)
	t.Setenv("PAWFINDER_API_KEY", "from-env")
	t.Setenv("PAWFINDER_AUTO_PROMPT_MAX_FAILURES", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "from-env", cfg.APIKey)
	require.Equal(t, 5, cfg.AutoPromptMaxFailures)
}

func TestLoad_BadJSONFails(t *testing.T) {
	path := writeConfigFile(t, `{"request_timeout": "not-a-duration"}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
