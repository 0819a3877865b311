package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvConfigPath, EnvInstanceURL, EnvUsername, EnvPassword, EnvHTTPPort, EnvGRPCPort, EnvLogLevel} {
		t.Setenv(key, "")
	}
}

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv(EnvInstanceURL, "https://dev.service-now.com/")
	t.Setenv(EnvUsername, "admin")
	t.Setenv(EnvPassword, "secret")
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.HTTP.Port != "8000" {
		t.Errorf("Expected HTTP port 8000, got %s", cfg.HTTP.Port)
	}
	if cfg.GRPC.Port != "50050" {
		t.Errorf("Expected gRPC port 50050, got %s", cfg.GRPC.Port)
	}
	if cfg.HTTP.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("Expected WriteTimeout %v, got %v", DefaultWriteTimeout, cfg.HTTP.WriteTimeout)
	}
	if cfg.HTTP.ReadLimit != DefaultReadLimit {
		t.Errorf("Expected ReadLimit %d, got %d", DefaultReadLimit, cfg.HTTP.ReadLimit)
	}
	if cfg.ServiceNow.Timeout != DefaultBackendTimeout {
		t.Errorf("Expected backend timeout %v, got %v", DefaultBackendTimeout, cfg.ServiceNow.Timeout)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	t.Setenv(EnvHTTPPort, "9001")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServiceNow.InstanceURL != "https://dev.service-now.com" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.ServiceNow.InstanceURL)
	}
	if cfg.ServiceNow.Username != "admin" || cfg.ServiceNow.Password != "secret" {
		t.Error("Expected credentials from environment")
	}
	if cfg.HTTP.Port != "9001" {
		t.Errorf("Expected HTTP port 9001, got %s", cfg.HTTP.Port)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvInstanceURL, "https://dev.service-now.com")

	_, err := Load("")
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("Expected ErrMissingCredentials, got %v", err)
	}
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "relay.yaml")
	contents := `
log_level: debug
http:
  port: "7000"
  allowed_origins: ["https://console.example.com"]
  write_timeout: 3s
grpc:
  port: "7001"
servicenow:
  instance_url: https://file.service-now.com
  username: file-user
  password: file-pass
  timeout: 12s
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvPassword, "env-pass")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Port != "7000" || cfg.GRPC.Port != "7001" {
		t.Errorf("Expected ports from file, got %s/%s", cfg.HTTP.Port, cfg.GRPC.Port)
	}
	if cfg.HTTP.WriteTimeout != 3*time.Second {
		t.Errorf("Expected write timeout 3s, got %v", cfg.HTTP.WriteTimeout)
	}
	if cfg.ServiceNow.Timeout != 12*time.Second {
		t.Errorf("Expected backend timeout 12s, got %v", cfg.ServiceNow.Timeout)
	}
	if len(cfg.HTTP.AllowedOrigins) != 1 {
		t.Errorf("Expected one allowed origin, got %v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.ServiceNow.Username != "file-user" {
		t.Errorf("Expected username from file, got %s", cfg.ServiceNow.Username)
	}
	if cfg.ServiceNow.Password != "env-pass" {
		t.Errorf("Expected env to override password, got %s", cfg.ServiceNow.Password)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.LogLevel)
	}
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	setCredentials(t)

	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: \"8123\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Port != "8123" {
		t.Errorf("Expected port 8123 from RELAY_CONFIG file, got %s", cfg.HTTP.Port)
	}
}

func TestLoad_UnknownField(t *testing.T) {
	clearEnv(t)
	setCredentials(t)

	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte("htpp:\n  port: \"1\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for unknown config field")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	setCredentials(t)

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got, err := ParseLevel(test.input)
			if (err != nil) != test.wantErr {
				t.Fatalf("Expected error %v, got %v", test.wantErr, err)
			}
			if got != test.want {
				t.Errorf("Expected %v, got %v", test.want, got)
			}
		})
	}
}

func TestTimingConstants(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected time.Duration
	}{
		{"DefaultWriteTimeout", DefaultWriteTimeout, 10 * time.Second},
		{"DefaultBackendTimeout", DefaultBackendTimeout, 30 * time.Second},
		{"DefaultShutdownTimeout", DefaultShutdownTimeout, 2 * time.Second},
		{"DefaultProbeHeartbeatInterval", DefaultProbeHeartbeatInterval, 5 * time.Second},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.duration != test.expected {
				t.Errorf("Expected %v, got %v", test.expected, test.duration)
			}
		})
	}
}
