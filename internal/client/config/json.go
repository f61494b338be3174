package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// accept strings like "10s" or integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	SessionFile        string         `json:"session_file"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
}

// parseJson overlays cfg with the file named by -c/-config. Absent fields
// keep their current values.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.SessionFile != "" {
		cfg.SessionFile = jc.SessionFile
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}
