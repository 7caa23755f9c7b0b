package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("AEGIS_AUTH_JWT_SECRET", "test-secret")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTExpiry)
	assert.False(t, cfg.MDR.Enabled)
	assert.Equal(t, "MOFA", cfg.MDR.Organization)
	assert.Equal(t, "NAFATH_SSO", cfg.MDR.Source)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("AEGIS_AUTH_JWT_SECRET", "test-secret")
	t.Setenv("AEGIS_API_PORT", "9090")
	t.Setenv("AEGIS_STORAGE_BACKEND", "memory")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aegis.yaml")
	content := []byte(`
api:
  port: 8443
auth:
  enabled: false
mdr:
  enabled: true
  endpoint: https://mdr.example.com/v1/events
  timeout: 5s
storage:
  backend: memory
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8443, cfg.API.Port)
	assert.False(t, cfg.Auth.Enabled)
	assert.True(t, cfg.MDR.Enabled)
	assert.Equal(t, 5*time.Second, cfg.MDR.Timeout)
}

func TestConfig_Validate(t *testing.T) {
	t.Setenv("AEGIS_AUTH_JWT_SECRET", "test-secret")

	base, err := LoadConfig("")
	require.NoError(t, err)

	bad := *base
	bad.API.Port = 0
	assert.Error(t, bad.Validate())

	bad = *base
	bad.Auth.JWTSecret = ""
	assert.Error(t, bad.Validate())

	bad = *base
	bad.Storage.Backend = "clickhouse"
	assert.Error(t, bad.Validate())

	bad = *base
	bad.MDR.Enabled = true
	bad.MDR.Endpoint = ""
	assert.Error(t, bad.Validate())
}
