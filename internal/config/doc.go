// Package config provides configuration loading for forage-ws.
//
// # Configuration File
//
// Configuration is read from, in order of precedence:
//
//   - the --config flag
//   - $FORAGE_WS_CONFIG
//   - $XDG_CONFIG_HOME/forage-ws/forage-ws.toml
//
// Files ending in .yaml or .yml are decoded with gopkg.in/yaml.v3,
// everything else as TOML. A missing default file yields Default();
// a missing explicit file is an error.
//
// # Example
//
//	state_dir = "/var/lib/forage-ws"
//	shutdown_timeout = "30s"
//
//	[host]
//	root = "/tmp/forage-ws"
//
//	[docker]
//	image = "python:3.12-slim"
//	container_prefix = "forage-ws-"
//
//	[remote]
//	url = "https://sandbox.example.com"
//	api_key = "..."
//	timeout = "30s"
//
//	[server]
//	listen = "127.0.0.1:8787"
//
// # Validation
//
// Parse applies Validate after decoding, so a loaded Config is always usable.
package config
