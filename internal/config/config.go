// Package config provides configuration loading for composed.
//
// Values come from hardcoded defaults, an optional YAML file and COMPOSED_
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds the complete composed configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Compose       ComposeConfig       `koanf:"compose"`
	Docker        DockerConfig        `koanf:"docker"`
	Bundle        BundleConfig        `koanf:"bundle"`
	Watch         WatchConfig         `koanf:"watch"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ComposeConfig locates compose projects and the compose tool.
type ComposeConfig struct {
	// Root is the directory whose immediate subdirectories are projects.
	Root string `koanf:"root"`

	// Command is the compose tool invocation, split on whitespace
	// ("docker-compose" or "docker compose").
	Command string `koanf:"command"`

	// PassEnv lists variables forwarded to the compose tool in addition to
	// PATH, HOME and DOCKER_HOST.
	PassEnv []string `koanf:"pass_env"`
}

// CommandArgs splits Command into argv.
func (c ComposeConfig) CommandArgs() []string {
	return strings.Fields(c.Command)
}

// DockerConfig holds the container runtime CLI.
type DockerConfig struct {
	Command string `koanf:"command"`
}

// CommandArgs splits Command into argv.
func (c DockerConfig) CommandArgs() []string {
	return strings.Fields(c.Command)
}

// BundleConfig controls support bundle assembly.
type BundleConfig struct {
	ScrubLogs   bool `koanf:"scrub_logs"`
	MaxParallel int  `koanf:"max_parallel"`
	HyphenNames bool `koanf:"hyphen_names"`
}

// WatchConfig controls the compose root watcher.
type WatchConfig struct {
	Enabled  bool     `koanf:"enabled"`
	Debounce Duration `koanf:"debounce"`
}

// LoggingConfig holds log level and encoding.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	ServiceName     string `koanf:"service_name"`
	Endpoint        string `koanf:"endpoint"`
	Protocol        string `koanf:"protocol"`
	Insecure        bool   `koanf:"insecure"`
}

// DefaultComposeRoot is used when neither compose.root nor COMPOSE_DIR is set.
const DefaultComposeRoot = "/opt/compose"

// NewDefaultConfig returns the configuration used before any file or
// environment overrides.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Compose: ComposeConfig{
			Command: "docker-compose",
		},
		Docker: DockerConfig{
			Command: "docker",
		},
		Bundle: BundleConfig{
			ScrubLogs:   true,
			MaxParallel: 4,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: Duration(500 * time.Millisecond),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Observability: ObservabilityConfig{
			ServiceName: "composed",
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			Insecure:    true,
		},
	}
}

var validLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Compose.Root == "" {
		return errors.New("compose root is required")
	}
	if len(c.Compose.CommandArgs()) == 0 {
		return errors.New("compose command is required")
	}
	if len(c.Docker.CommandArgs()) == 0 {
		return errors.New("docker command is required")
	}

	if c.Bundle.MaxParallel < 1 {
		return fmt.Errorf("invalid bundle max_parallel: %d (must be positive)", c.Bundle.MaxParallel)
	}
	if c.Watch.Enabled && c.Watch.Debounce <= 0 {
		return errors.New("watch debounce must be positive")
	}

	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %q (must be json or console)", c.Logging.Format)
	}

	if c.Observability.EnableTelemetry {
		if c.Observability.ServiceName == "" {
			return errors.New("service name required when telemetry is enabled")
		}
		if c.Observability.Endpoint == "" {
			return errors.New("OTLP endpoint required when telemetry is enabled")
		}
		if c.Observability.Protocol != "grpc" && c.Observability.Protocol != "http/protobuf" {
			return fmt.Errorf("invalid OTLP protocol: %q (must be grpc or http/protobuf)", c.Observability.Protocol)
		}
	}

	return nil
}
