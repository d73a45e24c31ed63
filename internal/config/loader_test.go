package config

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"
)

// setupTestHome points HOME at a temp dir and returns the composed config dir.
func setupTestHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(ComposeDirEnv, "")

	dir := filepath.Join(home, ".config", "composed")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	return dir
}

func writeConfig(t *testing.T, dir, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	// WriteFile is subject to umask.
	if err := os.Chmod(path, perm); err != nil {
		t.Fatalf("Failed to chmod test config: %v", err)
	}
	return path
}

func TestLoadWithFile_ValidYAML(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, `server:
  host: 127.0.0.1
  http_port: 9100
  shutdown_timeout: 3s
compose:
  root: /srv/compose
  command: docker compose
  pass_env: [DOCKER_CERT_PATH, DOCKER_TLS_VERIFY]
bundle:
  scrub_logs: false
  max_parallel: 2
watch:
  debounce: 1s
logging:
  level: debug
  format: console
`, 0600)

	cfg, err := LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:9100" {
		t.Errorf("Server.Addr() = %q, want 127.0.0.1:9100", cfg.Server.Addr())
	}
	if cfg.Server.ShutdownTimeout.Duration() != 3*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 3s", cfg.Server.ShutdownTimeout.Duration())
	}
	if cfg.Compose.Root != "/srv/compose" {
		t.Errorf("Compose.Root = %q, want /srv/compose", cfg.Compose.Root)
	}
	if got := cfg.Compose.CommandArgs(); !reflect.DeepEqual(got, []string{"docker", "compose"}) {
		t.Errorf("Compose.CommandArgs() = %v, want [docker compose]", got)
	}
	if got := cfg.Compose.PassEnv; !reflect.DeepEqual(got, []string{"DOCKER_CERT_PATH", "DOCKER_TLS_VERIFY"}) {
		t.Errorf("Compose.PassEnv = %v", got)
	}
	if cfg.Bundle.ScrubLogs {
		t.Error("Bundle.ScrubLogs = true, want false from file")
	}
	if cfg.Bundle.MaxParallel != 2 {
		t.Errorf("Bundle.MaxParallel = %d, want 2", cfg.Bundle.MaxParallel)
	}
	if !cfg.Watch.Enabled {
		t.Error("Watch.Enabled = false, want default true")
	}
	if cfg.Watch.Debounce.Duration() != time.Second {
		t.Errorf("Watch.Debounce = %v, want 1s", cfg.Watch.Debounce.Duration())
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v, want debug/console", cfg.Logging)
	}
	if cfg.Docker.Command != "docker" {
		t.Errorf("Docker.Command = %q, want default docker", cfg.Docker.Command)
	}
}

func TestLoadWithFile_MissingFileUsesDefaults(t *testing.T) {
	dir := setupTestHome(t)

	cfg, err := LoadWithFile(filepath.Join(dir, "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Compose.Root != DefaultComposeRoot {
		t.Errorf("Compose.Root = %q, want %q", cfg.Compose.Root, DefaultComposeRoot)
	}
	if !cfg.Bundle.ScrubLogs {
		t.Error("Bundle.ScrubLogs = false, want default true")
	}
	if cfg.Observability.EnableTelemetry {
		t.Error("Observability.EnableTelemetry = true, want false")
	}
}

func TestLoadWithFile_DefaultPath(t *testing.T) {
	dir := setupTestHome(t)
	writeConfig(t, dir, "server:\n  http_port: 9200\n", 0600)

	cfg, err := LoadWithFile("")
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}
	if cfg.Server.Port != 9200 {
		t.Errorf("Server.Port = %d, want 9200", cfg.Server.Port)
	}
}

func TestLoadWithFile_EnvOverridesFile(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "server:\n  http_port: 9100\ncompose:\n  root: /srv/compose\n", 0600)

	t.Setenv("COMPOSED_SERVER_HTTP_PORT", "9300")
	t.Setenv("COMPOSED_COMPOSE_ROOT", "/data/compose")
	t.Setenv("COMPOSED_BUNDLE_HYPHEN_NAMES", "true")
	t.Setenv("COMPOSED_WATCH_ENABLED", "false")

	cfg, err := LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}
	if cfg.Server.Port != 9300 {
		t.Errorf("Server.Port = %d, want 9300", cfg.Server.Port)
	}
	if cfg.Compose.Root != "/data/compose" {
		t.Errorf("Compose.Root = %q, want /data/compose", cfg.Compose.Root)
	}
	if !cfg.Bundle.HyphenNames {
		t.Error("Bundle.HyphenNames = false, want true")
	}
	if cfg.Watch.Enabled {
		t.Error("Watch.Enabled = true, want false")
	}
}

func TestLoadWithFile_ComposeDirFallback(t *testing.T) {
	dir := setupTestHome(t)
	t.Setenv(ComposeDirEnv, "/legacy/compose")

	cfg, err := LoadWithFile(filepath.Join(dir, "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}
	if cfg.Compose.Root != "/legacy/compose" {
		t.Errorf("Compose.Root = %q, want /legacy/compose", cfg.Compose.Root)
	}

	// An explicit compose.root wins over COMPOSE_DIR.
	path := writeConfig(t, dir, "compose:\n  root: /srv/compose\n", 0600)
	cfg, err = LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}
	if cfg.Compose.Root != "/srv/compose" {
		t.Errorf("Compose.Root = %q, want /srv/compose", cfg.Compose.Root)
	}
}

func TestLoadWithFile_RejectsInsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission model differs on windows")
	}
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "server:\n  http_port: 9100\n", 0644)

	_, err := LoadWithFile(path)
	if err == nil || !strings.Contains(err.Error(), "insecure config file permissions") {
		t.Errorf("LoadWithFile() error = %v, want insecure permissions error", err)
	}
}

func TestLoadWithFile_RejectsLargeFile(t *testing.T) {
	dir := setupTestHome(t)
	big := "# " + strings.Repeat("x", maxConfigFileSize) + "\n"
	path := writeConfig(t, dir, big, 0600)

	_, err := LoadWithFile(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("LoadWithFile() error = %v, want size error", err)
	}
}

func TestLoadWithFile_RejectsInvalidValues(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "logging:\n  level: loud\n", 0600)

	_, err := LoadWithFile(path)
	if err == nil || !strings.Contains(err.Error(), "invalid log level") {
		t.Errorf("LoadWithFile() error = %v, want log level error", err)
	}
}

func TestLoadWithFile_RejectsOutsideAllowedDirs(t *testing.T) {
	setupTestHome(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	if _, err := LoadWithFile(path); err == nil {
		t.Error("LoadWithFile() accepted a config outside the allowed directories")
	}
}

func TestValidateConfigPath(t *testing.T) {
	dir := setupTestHome(t)

	allowed := []string{
		filepath.Join(dir, "config.yaml"),
		filepath.Join(dir, "nested", "config.yaml"),
		"/etc/composed/config.yaml",
	}
	for _, path := range allowed {
		if err := validateConfigPath(path); err != nil {
			t.Errorf("validateConfigPath(%q) = %v, want nil", path, err)
		}
	}

	rejected := []string{
		"/etc/passwd",
		"/etc/composed../passwd",
		filepath.Join(dir, "..", "..", "..", "etc", "passwd"),
		"/etc/composed-other/config.yaml",
	}
	for _, path := range rejected {
		if err := validateConfigPath(path); err == nil {
			t.Errorf("validateConfigPath(%q) = nil, want error", path)
		}
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"COMPOSED_SERVER_HTTP_PORT":      "server.http_port",
		"COMPOSED_COMPOSE_PASS_ENV":      "compose.pass_env",
		"COMPOSED_OBSERVABILITY_INSECURE": "observability.insecure",
		"COMPOSED_DEBUG":                 "debug",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnsureConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := EnsureConfigDir(); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(home, ".config", "composed"))
	if err != nil || !info.IsDir() {
		t.Fatalf("config dir not created: %v", err)
	}
}
