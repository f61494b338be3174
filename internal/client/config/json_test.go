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

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeTempJSON(t, dir, "flag.json", map[string]any{
		"server_endpoint_addr": "www.example:9000",
		"request_timeout":      "30s",
	})

	t.Run("loads from flags", func(t *testing.T) {
		cfg := &Config{SessionFile: "/keep"}
		require.NoError(t, parseJson(cfg, []string{"-config", path}))

		assert.Equal(t, "www.example:9000", cfg.ServerEndpointAddr)
		assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
		assert.Equal(t, "/keep", cfg.SessionFile)
	})

	t.Run("no flags → no changes", func(t *testing.T) {
		cfg := &Config{ServerEndpointAddr: "defaults:1234", RequestTimeout: 42 * time.Second}
		require.NoError(t, parseJson(cfg, nil))

		assert.Equal(t, "defaults:1234", cfg.ServerEndpointAddr)
		assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		require.Error(t, parseJson(&Config{}, []string{"-c", bad}))
	})

	t.Run("flags override JSON", func(t *testing.T) {
		cfg, rest, err := LoadConfig([]string{"-c", path, "-a", "cli:1", "me"})
		require.NoError(t, err)
		assert.Equal(t, "cli:1", cfg.ServerEndpointAddr)
		assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
		assert.Equal(t, []string{"me"}, rest)
	})
}
