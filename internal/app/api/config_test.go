package api

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"CONFIG_FILE", "PORT", "POSTGRES_DSN", "JWT_SECRET", "TEMPORAL_ADDRESS", "TEMPORAL_NAMESPACE",
	"TEMPORAL_DISABLED", "REDIS_ADDR", "DIRECTORY_CACHE_TTL", "AUDIT_BACKEND", "AUDIT_DYNAMODB_TABLE",
	"AWS_REGION", "AWS_ENDPOINT_URL", "CORS_ORIGIN", "WS_SEND_BUFFER", "ENVIRONMENT", "LOG_LEVEL", "TIMEZONE",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	clearConfigEnv(t)

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, AuditBackendMemory, cfg.AuditBackend)
	assert.Equal(t, "audit_logs", cfg.AuditDynamoTable)
	assert.Equal(t, defaultDirectoryCacheTTL, cfg.DirectoryCacheTTL)
	assert.Equal(t, defaultSendBuffer, cfg.WSSendBuffer)
	assert.Equal(t, "local", cfg.Environment)
	assert.Empty(t, cfg.CORSOrigins)
	assert.False(t, cfg.TemporalDisabled)
	assert.Equal(t, time.Local, cfg.Location)
}

func TestLoadConfigAuditDefaultsToPostgresWithDSN(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("POSTGRES_DSN", "postgres://meals@localhost/meals")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, AuditBackendPostgres, cfg.AuditBackend)
}

func TestLoadConfigFileIsOverriddenByEnv(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
jwt_secret: from-file
port: 9090
cors_origin: "https://kitchen.example.com, https://ops.example.com"
ws_send_buffer: 8
timezone: Asia/Jakarta
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")
	t.Setenv("TEMPORAL_DISABLED", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, []string{"https://kitchen.example.com", "https://ops.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 8, cfg.WSSendBuffer)
	assert.Equal(t, "Asia/Jakarta", cfg.Location.String())
	assert.True(t, cfg.TemporalDisabled)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"audit backend": {"AUDIT_BACKEND": "sqlite"},
		"cache ttl":     {"DIRECTORY_CACHE_TTL": "-5s"},
		"send buffer":   {"WS_SEND_BUFFER": "zero"},
		"timezone":      {"TIMEZONE": "Mars/Olympus"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv("JWT_SECRET", "secret")
			for key, value := range env {
				t.Setenv(key, value)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}
