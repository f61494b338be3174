package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "authkeeper.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_grpc":               "www.example:9000",
		"database_dsn":                     "postgres://db",
		"secret_key":                       "my_secret_key",
		"access_token_validity_duration":   "12h",
		"password_reset_validity_duration": "30m",
		"bcrypt_cost":                      11,
		"hash_workers":                     2,
		"require_confirmed_email":          true,
		"smtp_addr":                        "mail:587",
		"service_name":                     "Shop",
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg, []string{"-config", path}))

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 12*time.Hour, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 30*time.Minute, cfg.PasswordResetValidityDuration)
		assert.Equal(t, 11, cfg.BcryptCost)
		assert.Equal(t, 2, cfg.HashWorkers)
		assert.True(t, cfg.RequireConfirmedEmail)
		assert.Equal(t, "mail:587", cfg.SMTPAddr)
		assert.Equal(t, "Shop", cfg.ServiceName)

		// untouched by the file
		assert.Equal(t, ":9100", cfg.MetricsAddr)
		assert.Equal(t, "no-reply@localhost", cfg.MailFrom)
	})

	t.Run("no config flag, no changes", func(t *testing.T) {
		cfg := &Config{SecretKey: "key", BcryptCost: 5}
		require.NoError(t, parseJson(cfg, []string{"-a", ":1"}))
		assert.Equal(t, &Config{SecretKey: "key", BcryptCost: 5}, cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := &Config{}
		assert.Error(t, parseJson(cfg, []string{"-c", filepath.Join(t.TempDir(), "nope.json")}))
	})

	t.Run("invalid json", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		cfg := &Config{}
		assert.Error(t, parseJson(cfg, []string{"-c", bad}))
	})
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"secret_key": "from-json", "endpoint_addr_grpc": ":7000"})

	cfg, err := LoadConfig([]string{"-c", path, "-s", "from-flag"})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.SecretKey)
	assert.Equal(t, ":7000", cfg.EndpointAddrGRPC)
}
