package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the authctl CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - SessionFile: SQLite database keeping the login session between invocations.
//   - RequestTimeout: deadline applied to every call to the server.
type Config struct {
	ServerEndpointAddr string
	SessionFile        string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SessionFile = defaultSessionFile()
	c.RequestTimeout = 10 * time.Second
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "authkeeper", "session.db")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and the global flags leading args. It returns the
// arguments left after the global flags, i.e. the subcommand and its flags.
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, nil, fmt.Errorf("json config: %w", err)
	}
	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, rest, nil
}
