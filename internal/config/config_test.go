package config

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewDefaultConfig_IsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Compose.Root = "/srv/compose"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }, true},
		{"empty root", func(c *Config) { c.Compose.Root = "" }, true},
		{"blank compose command", func(c *Config) { c.Compose.Command = "  " }, true},
		{"empty docker command", func(c *Config) { c.Docker.Command = "" }, true},
		{"zero parallelism", func(c *Config) { c.Bundle.MaxParallel = 0 }, true},
		{"zero debounce while watching", func(c *Config) { c.Watch.Debounce = 0 }, true},
		{"zero debounce without watching", func(c *Config) { c.Watch.Enabled = false; c.Watch.Debounce = 0 }, false},
		{"upper case level", func(c *Config) { c.Logging.Level = "WARN" }, false},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"telemetry without service", func(c *Config) {
			c.Observability.EnableTelemetry = true
			c.Observability.ServiceName = ""
		}, true},
		{"telemetry with bad protocol", func(c *Config) {
			c.Observability.EnableTelemetry = true
			c.Observability.Protocol = "udp"
		}, true},
		{"telemetry over http", func(c *Config) {
			c.Observability.EnableTelemetry = true
			c.Observability.Protocol = "http/protobuf"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.Compose.Root = "/srv/compose"
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDuration(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("250ms")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if d.Duration() != 250*time.Millisecond {
		t.Errorf("Duration() = %v, want 250ms", d.Duration())
	}
	if err := d.UnmarshalText([]byte("-1s")); err == nil {
		t.Error("UnmarshalText() accepted a negative duration")
	}
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("UnmarshalText() accepted garbage")
	}
	if err := d.UnmarshalText([]byte(" 1m \n")); err != nil || d.Duration() != time.Minute {
		t.Errorf("UnmarshalText() with surrounding space = %v, %v", d.Duration(), err)
	}

	out, err := json.Marshal(Duration(2 * time.Second))
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(out) != `"2s"` {
		t.Errorf("json.Marshal() = %s, want \"2s\"", out)
	}
}
