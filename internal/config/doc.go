// Package config loads the botdash-server configuration from a YAML file.
//
// Config fields:
//   - Server.HTTPPort          — REST API, metrics and WebSocket port (default 8080)
//   - Server.GRPCPort          — gRPC health port (default 50051; 0 disables)
//   - Server.LogLevel          — debug | info | warn | error (default info)
//   - Cache.ConfigTTL          — lifetime of the stored configuration (default 0, never expires)
//   - Cache.NotificationTTL    — lifetime of the notification log (default 0, never expires)
//   - Stream.Interval          — WebSocket broadcast interval (default 5s)
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, fn) reloads the file on change and hands the new Config
// to fn; only the log level is meant to be applied live.
package config
