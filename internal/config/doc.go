// Package config loads and watches the scoreboard configuration (config.yaml).
//
// Top-level types:
//   - Config{Source, Schema, Poll, Server, Notify, UI, Log}: full tree parsed from YAML
//   - SourceConfig: type (sheets|xlsx), base_url, sheet_id, range, api_key_env,
//     path/sheet for workbooks, min_request_interval, timeout; APIKey() resolves
//     the key from the environment
//   - SchemaConfig: header_row, value_row, columns (A1 letters); the explicit
//     mapping from sheet cells to named entries
//   - PollConfig, ServerConfig, NotifyConfig, UIConfig, LogConfig
//
// Load(path) reads the YAML file (a missing file falls back to defaults),
// applies defaults (5s poll, 10s request spacing, columns B and C, port 8080),
// environment overrides (SCOREBOARD_SHEET_ID, SCOREBOARD_RANGE,
// POLLING_INTERVAL in ms, SCOREBOARD_HTTP_PORT, LOG_LEVEL), then validates.
//
// Watch(ctx, path, onChange) uses fsnotify to reload on change.
package config
