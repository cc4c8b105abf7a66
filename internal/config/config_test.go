package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultNeedsOnlyAPIKey(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trello.apiKey")

	cfg.Trello.APIKey = "key"
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TRELLO_API_KEY", "env-key")
	t.Setenv("TRELLO_BASE_URL", "http://localhost:9999/1")
	t.Setenv("TRELLO_TIMEOUT", "3s")
	t.Setenv("TRELLOSYNC_STORAGE", StorageSQLite)
	t.Setenv("TRELLOSYNC_STORAGE_PATH", "/tmp/session.db")
	t.Setenv("TRELLOSYNC_LOG_LEVEL", "debug")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "env-key", cfg.Trello.APIKey)
	assert.Equal(t, "http://localhost:9999/1", cfg.Trello.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Trello.Timeout)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/session.db", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestApplyEnvRejectsBadTimeout(t *testing.T) {
	t.Setenv("TRELLO_TIMEOUT", "soon")
	assert.Error(t, Default().ApplyEnv())
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Storage = StorageConfig{Driver: "redis"}
	cfg.Log.Format = "xml"
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"trello.apiKey", `"redis"`, `"xml"`} {
		assert.Contains(t, err.Error(), want)
	}

	cfg = Default()
	cfg.Trello.APIKey = "key"
	cfg.Storage = StorageConfig{Driver: StorageFile}
	assert.ErrorContains(t, cfg.Validate(), "storage.path")

	cfg.Storage = StorageConfig{Driver: StorageMemory}
	assert.NoError(t, cfg.Validate())
}

type staticProvider struct{ cfg *Config }

func (p staticProvider) LoadConfig(string) (*Config, error) { return p.cfg, nil }

func TestLoadUsesProvider(t *testing.T) {
	t.Cleanup(func() { provider, loadedConfig = nil, nil })

	assert.Error(t, Load("config.yaml"))

	want := Default()
	SetProvider(staticProvider{cfg: want})
	require.NoError(t, Load("config.yaml"))
	assert.Same(t, want, GetLoadedConfig())
}
