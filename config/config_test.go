package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pilab-dev/shadow-interview/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, config.RuntimeBrowser, cfg.Runtime)
	assert.Equal(t, config.BackendBolt, cfg.StoreBackend)
	assert.Equal(t, config.BackendBolt, cfg.SessionBackend)
	assert.Equal(t, "client.db", filepath.Base(cfg.BoltPath))
	assert.True(t, cfg.AccountsOutliveProcess(), "a restored session must find its account")
	assert.Equal(t, 720, cfg.SessionTTLHour)
	assert.Equal(t, "keep", cfg.ReroutePolicy)
	assert.False(t, cfg.GoogleConfigured())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("RUNTIME: native\nGOOGLE_CLIENT_ID: id\nGOOGLE_CLIENT_SECRET: secret\n"), 0o600))
	t.Setenv("SESSION_BACKEND", "redis")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, config.RuntimeNative, cfg.Runtime)
	assert.Equal(t, config.BackendRedis, cfg.SessionBackend)
	assert.True(t, cfg.GoogleConfigured())
}

func TestLoadConfig_RejectsUnknownRuntime(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RUNTIME", "toaster")

	_, err := config.LoadConfig("")
	assert.ErrorContains(t, err, "invalid RUNTIME")
}

func TestValidate_BoltNeedsPath(t *testing.T) {
	cfg := &config.ClientConfig{
		Runtime:           config.RuntimeNative,
		StoreBackend:      config.BackendMemory,
		SessionBackend:    config.BackendBolt,
		SessionTTLHour:    1,
		SessionSigningKey: "k",
	}
	assert.ErrorContains(t, cfg.Validate(), "BOLT_PATH")

	cfg.BoltPath = filepath.Join(t.TempDir(), "client.db")
	assert.NoError(t, cfg.Validate())

	cfg.SessionBackend = config.BackendMemory
	cfg.StoreBackend = config.BackendBolt
	cfg.BoltPath = ""
	assert.ErrorContains(t, cfg.Validate(), "BOLT_PATH", "the account store needs the file too")
}
