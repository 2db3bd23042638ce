package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUsesDefaultsAndEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("API_KEY", "client-key")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, "client-key", cfg.GeminiAPIKey)
	assert.True(t, cfg.AIEnabled())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
}

func TestLoadPrefersGeminiKeyOverClientKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("API_KEY", "client-key")
	t.Setenv("GEMINI_API_KEY", "server-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "server-key", cfg.GeminiAPIKey)
}

func TestLoadYAMLIsOverriddenByEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "siteguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "8088"
jwt_secret: from-file
refresh_token_ttl: 48h
database:
  host: db.internal
  name: sites
smtp:
  host: smtp.example.com
  from: noreply@example.com
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_NAME", "sites_override")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8088", cfg.Port)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 48*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "sites_override", cfg.Database.Name)
	assert.True(t, cfg.SMTP.Enabled())
	assert.Contains(t, cfg.Database.DSN(), "dbname=sites_override")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.EqualError(t, cfg.Validate(), "JWT_SECRET is required")

	cfg.JWTSecret = "x"
	require.NoError(t, cfg.Validate())

	cfg.StorageDriver = "mongo"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.JWTSecret = "x"
	cfg.Port = "70000"
	assert.Error(t, cfg.Validate())
}
