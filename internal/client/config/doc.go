// Package config loads runtime configuration for the KidsBank CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with --config.
//  3. Command-line flags bound by the cli package.
//
// The JSON loader uses timex.Duration, so the timeout may be a string like
// "5s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "database_path": "kidsbank.db",
//	  "request_timeout": "5s"
//	}
package config
