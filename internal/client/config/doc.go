// Package config loads runtime configuration for the cryptnotes CLI.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables, optionally from a .env file.
//  4. Command-line flags.
//
// Supported flags
//
//	-a string     address:port of the server's gRPC endpoint
//	-t duration   per-request timeout
//	-v            debug logging
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:3200",
//	  "request_timeout": "10s"
//	}
//
// The inactivity window is not configurable here; the client uses the value
// the server reports at login.
package config
