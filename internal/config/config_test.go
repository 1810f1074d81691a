package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, "# empty\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Server.GRPCPort != DefaultGRPCPort {
		t.Errorf("grpc_port: got %d, want %d", cfg.Server.GRPCPort, DefaultGRPCPort)
	}
	if cfg.Server.Level() != slog.LevelInfo {
		t.Errorf("log level: got %v, want INFO", cfg.Server.Level())
	}
	if cfg.Cache.ConfigTTL != 0 || cfg.Cache.NotificationTTL != 0 {
		t.Errorf("cache ttl: got %v/%v, want 0/0", cfg.Cache.ConfigTTL, cfg.Cache.NotificationTTL)
	}
	if cfg.Stream.Interval != DefaultStreamInterval {
		t.Errorf("stream.interval: got %v, want %v", cfg.Stream.Interval, DefaultStreamInterval)
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9091
  grpc_port: 0
  log_level: debug
cache:
  config_ttl: 1h
  notification_ttl: 30m
stream:
  interval: 2s
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9091 {
		t.Errorf("http_port: got %d, want 9091", cfg.Server.HTTPPort)
	}
	if cfg.Server.GRPCPort != 0 {
		t.Errorf("grpc_port: got %d, want 0", cfg.Server.GRPCPort)
	}
	if cfg.Server.Level() != slog.LevelDebug {
		t.Errorf("log level: got %v, want DEBUG", cfg.Server.Level())
	}
	if cfg.Cache.ConfigTTL != time.Hour {
		t.Errorf("cache.config_ttl: got %v, want 1h", cfg.Cache.ConfigTTL)
	}
	if cfg.Cache.NotificationTTL != 30*time.Minute {
		t.Errorf("cache.notification_ttl: got %v, want 30m", cfg.Cache.NotificationTTL)
	}
	if cfg.Stream.Interval != 2*time.Second {
		t.Errorf("stream.interval: got %v, want 2s", cfg.Stream.Interval)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"http port out of range", "server:\n  http_port: 70000\n"},
		{"negative grpc port", "server:\n  grpc_port: -1\n"},
		{"port clash", "server:\n  http_port: 9000\n  grpc_port: 9000\n"},
		{"unknown log level", "server:\n  log_level: loud\n"},
		{"negative config ttl", "cache:\n  config_ttl: -1s\n"},
		{"negative notification ttl", "cache:\n  notification_ttl: -5m\n"},
		{"zero stream interval", "stream:\n  interval: 0s\n"},
		{"bad yaml", "server: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.yaml)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLevel_Names(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		if got := (ServerConfig{LogLevel: name}).Level(); got != want {
			t.Errorf("Level(%q): got %v, want %v", name, got, want)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
