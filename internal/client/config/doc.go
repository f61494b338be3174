// Package config loads runtime configuration for the authctl CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Global command-line flags placed before the subcommand.
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "session_file": "/home/alice/.config/authkeeper/session.db",
//	  "request_timeout": "10s"
//	}
package config
