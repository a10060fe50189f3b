// Package config loads runtime configuration for the FocusKeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the remote backend
//	-d string   path to the local SQLite database
//	-i int      online status check interval (seconds)
//	-m string   listen address for the /metrics endpoint ("" disables it)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_url": "https://api.example.com",
//	  "database_path": "focuskeeper.db",
//	  "online_check_interval": "3s",
//	  "probe_timeout": "3s",
//	  "metrics_addr": ":9090"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
