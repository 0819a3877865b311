// Package config holds relay defaults and loads process configuration.
//
// Configuration comes from an optional YAML file (the --config flag or the
// RELAY_CONFIG environment variable) followed by environment overrides.
// ServiceNow credentials are required; there is no fallback.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load
const (
	EnvConfigPath  = "RELAY_CONFIG"
	EnvInstanceURL = "SERVICENOW_INSTANCE_URL"
	EnvUsername    = "SERVICENOW_USERNAME"
	EnvPassword    = "SERVICENOW_PASSWORD"
	EnvHTTPPort    = "HTTP_PORT"
	EnvGRPCPort    = "GRPC_PORT"
	EnvLogLevel    = "LOG_LEVEL"
)

const (
	defaultHTTPPort = "8000"
	defaultGRPCPort = "50050"
)

// ErrMissingCredentials is returned when the ServiceNow URL or credentials are unset
var ErrMissingCredentials = errors.New("ServiceNow credentials (URL, username, password) are not set")

// Config is the relay process configuration
type Config struct {
	// Name and Version identify the relay on the MCP surface
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	HTTP       HTTPConfig       `yaml:"http"`
	GRPC       GRPCConfig       `yaml:"grpc"`
	ServiceNow ServiceNowConfig `yaml:"servicenow"`
}

// HTTPConfig configures the WebSocket, discovery and health listener
type HTTPConfig struct {
	Port string `yaml:"port"`
	// AllowedOrigins restricts browser WebSocket origins; empty allows all
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadLimit      int64         `yaml:"read_limit"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// GRPCConfig configures the gRPC health listener
type GRPCConfig struct {
	Port string `yaml:"port"`
}

// ServiceNowConfig holds the backend instance and credentials
type ServiceNowConfig struct {
	InstanceURL string        `yaml:"instance_url"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Name:     "servicenow-mcp-relay",
		Version:  "0.1.0",
		LogLevel: "info",
		HTTP: HTTPConfig{
			Port:         defaultHTTPPort,
			ReadLimit:    DefaultReadLimit,
			WriteTimeout: DefaultWriteTimeout,
		},
		GRPC: GRPCConfig{
			Port: defaultGRPCPort,
		},
		ServiceNow: ServiceNowConfig{
			Timeout: DefaultBackendTimeout,
		},
	}
}

// Load builds the configuration from path (or RELAY_CONFIG when path is
// empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		key    string
		target *string
	}{
		{EnvInstanceURL, &cfg.ServiceNow.InstanceURL},
		{EnvUsername, &cfg.ServiceNow.Username},
		{EnvPassword, &cfg.ServiceNow.Password},
		{EnvHTTPPort, &cfg.HTTP.Port},
		{EnvGRPCPort, &cfg.GRPC.Port},
		{EnvLogLevel, &cfg.LogLevel},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.target = v
		}
	}
	cfg.ServiceNow.InstanceURL = strings.TrimRight(cfg.ServiceNow.InstanceURL, "/")
}

// Validate checks required fields
func (c Config) Validate() error {
	sn := c.ServiceNow
	if sn.InstanceURL == "" || sn.Username == "" || sn.Password == "" {
		return ErrMissingCredentials
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
