// Package config provides user configuration management for minerdash.
//
// This package manages a YAML file holding the dashboard's backend URL, the
// reconnect policy, per-subsystem log level overrides, defaults for the
// backend server and backends remembered from discovery.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/minerdash/config.yaml or $HOME/.config/minerdash/config.yaml
//   - macOS: $HOME/.config/minerdash/config.yaml
//   - Windows: %LOCALAPPDATA%\minerdash\config.yaml
//
// # File Format
//
//	version: 1
//	dashboard:
//	  url: https://rig-01.local:8125/
//	  ws_path: /ws
//	reconnect:
//	  initial: 1s
//	  max: 30s
//	  multiplier: 2
//	  jitter: 0.2
//	  max_retries: 10
//	levels:
//	  miner: debug
//	  socket: warning
//	server:
//	  port: 8125
//	  state_path: /var/lib/minerdash/levels.yaml
//	  advertise: true
//
// Level overrides are validated on load; an unknown subsystem or level name
// makes the whole file invalid.
//
// # Usage Example
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	state, err := cfg.LevelState()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Save writes to a temporary file and renames it into place, so a crash
// never leaves a truncated file.
package config
