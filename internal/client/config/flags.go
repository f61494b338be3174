package config

import (
	"flag"
	"io"
	"time"
)

// parseFlags parses the global flags that precede the subcommand.
//
// Supported flags:
//
//	-a string        address and port of the backend server
//	-f string        session database file
//	-timeout int     request timeout (in seconds)
//	-c, -config      JSON config file (read by parseJson)
//
// Parsing stops at the first non-flag argument; that argument and
// everything after it are returned.
func parseFlags(cfg *Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("authctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configPath string
	fs.StringVar(&configPath, "c", "", "path to config file")
	fs.StringVar(&configPath, "config", "", "path to config file")

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.SessionFile, "f", cfg.SessionFile, "session database file")
	timeout := fs.Int("timeout", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "timeout" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})

	return fs.Args(), nil
}
