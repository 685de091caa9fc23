package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader returned nil")
	}
	if len(loader.configPaths) != 3 {
		t.Errorf("Expected 3 config paths, got %d", len(loader.configPaths))
	}
}

func newIsolatedLoader(t *testing.T, paths ...string) *Loader {
	t.Helper()
	loader := NewLoader()
	loader.configPaths = paths
	loader.warn = func(format string, args ...interface{}) {
		t.Logf("warning: "+format, args...)
	}
	return loader
}

func TestLoadConfigDefaults(t *testing.T) {
	loader := newIsolatedLoader(t, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := loader.LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	if cfg.Analysis.RevealDelay != 2*time.Second {
		t.Errorf("Expected default reveal delay 2s, got %v", cfg.Analysis.RevealDelay)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test-config.yaml")

	configContent := `version: "1.0"
analysis:
  reveal_delay: 500ms
ui:
  theme: high-contrast
  alt_screen: false
server:
  port: 9090
  allow_origins:
    - https://example.com
output:
  verbose: true
`

	err := os.WriteFile(configPath, []byte(configContent), 0o600)
	if err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config from file: %v", err)
	}

	if cfg.Analysis.RevealDelay != 500*time.Millisecond {
		t.Errorf("Expected reveal delay 500ms, got %v", cfg.Analysis.RevealDelay)
	}
	if cfg.Analysis.ResetDelay != 3*time.Second {
		t.Errorf("Expected reset delay to keep its default, got %v", cfg.Analysis.ResetDelay)
	}
	if cfg.UI.Theme != "high-contrast" {
		t.Errorf("Expected theme high-contrast, got %s", cfg.UI.Theme)
	}
	if cfg.UI.AltScreen {
		t.Error("Expected alt_screen to be switched off")
	}
	if !cfg.UI.Mouse {
		t.Error("Expected mouse to keep its default")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if len(cfg.Server.AllowOrigins) != 1 || cfg.Server.AllowOrigins[0] != "https://example.com" {
		t.Errorf("Unexpected allow origins %v", cfg.Server.AllowOrigins)
	}
	if !cfg.Output.Verbose {
		t.Errorf("Expected verbose to be true")
	}
}

func TestLoadConfigPriority(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "project.yaml")
	system := filepath.Join(dir, "system.yaml")

	if err := os.WriteFile(system, []byte("server:\n  port: 7000\n  max_sessions: 5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(project, []byte("server:\n  port: 7001\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := newIsolatedLoader(t, project, system).LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("Expected project file to win, got port %d", cfg.Server.Port)
	}
	if cfg.Server.MaxSessions != 5 {
		t.Errorf("Expected system value to survive, got %d", cfg.Server.MaxSessions)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid-config.yaml")

	invalidConfigContent := `version: "1.0"
ui:
  theme: "default
  mouse: true
`

	err := os.WriteFile(configPath, []byte(invalidConfigContent), 0o600)
	if err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	loader := NewLoader()
	_, err = loader.LoadConfig(configPath)
	if err == nil {
		t.Error("Expected error loading invalid YAML config, but got none")
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(configPath, []byte("analysis:\n  reveal_delay: 0s\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader().LoadConfig(configPath)
	if err == nil || !strings.Contains(err.Error(), "reveal_delay must be positive") {
		t.Fatalf("Expected validation error, got %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DROPPAD_ANALYSIS_REVEAL_DELAY", "250ms")
	t.Setenv("DROPPAD_UI_THEME", "minimal")
	t.Setenv("DROPPAD_SERVER_PORT", "9999")
	t.Setenv("DROPPAD_OUTPUT_VERBOSE", "true")
	t.Setenv("DROPPAD_INBOX_PARTIAL_SUFFIXES", ".part, .tmp ,")
	t.Setenv("DROPPAD_SERVER_ALLOW_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("DROPPAD_INBOX_SETTLE_DELAY", "1s")

	loader := NewLoader()
	cfg := DefaultConfig()

	err := loader.applyEnvOverrides(cfg)
	if err != nil {
		t.Fatalf("Failed to apply env overrides: %v", err)
	}

	if cfg.Analysis.RevealDelay != 250*time.Millisecond {
		t.Errorf("Expected reveal delay 250ms, got %v", cfg.Analysis.RevealDelay)
	}
	if cfg.UI.Theme != "minimal" {
		t.Errorf("Expected theme minimal, got %s", cfg.UI.Theme)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999, got %d", cfg.Server.Port)
	}
	if !cfg.Output.Verbose {
		t.Errorf("Expected verbose to be true")
	}
	expectedSuffixes := []string{".part", ".tmp"}
	if len(cfg.Inbox.PartialSuffixes) != len(expectedSuffixes) {
		t.Fatalf("Expected suffixes %v, got %v", expectedSuffixes, cfg.Inbox.PartialSuffixes)
	}
	for i, s := range expectedSuffixes {
		if cfg.Inbox.PartialSuffixes[i] != s {
			t.Errorf("Expected suffix %s, got %s", s, cfg.Inbox.PartialSuffixes[i])
		}
	}
	if len(cfg.Server.AllowOrigins) != 2 {
		t.Errorf("Expected 2 origins, got %v", cfg.Server.AllowOrigins)
	}
	if cfg.Inbox.SettleDelay != time.Second {
		t.Errorf("Expected settle delay 1s, got %v", cfg.Inbox.SettleDelay)
	}
}

func TestApplyEnvOverridesInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		value  string
	}{
		{"invalid int", "DROPPAD_SERVER_MAX_SESSIONS", "not-a-number"},
		{"invalid bool", "DROPPAD_OUTPUT_VERBOSE", "not-a-bool"},
		{"invalid duration", "DROPPAD_ANALYSIS_RESET_DELAY", "not-a-duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, tt.value)

			loader := NewLoader()
			cfg := DefaultConfig()

			err := loader.applyEnvOverrides(cfg)
			if err == nil {
				t.Error("Expected error for invalid env var value, but got none")
			} else if !strings.Contains(err.Error(), tt.envVar) {
				t.Errorf("Expected error to name %s, got %v", tt.envVar, err)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	var duration time.Duration

	err := parseDuration("30s", &duration)
	if err != nil {
		t.Errorf("Failed to parse duration: %v", err)
	}
	if duration != 30*time.Second {
		t.Errorf("Expected 30s, got %v", duration)
	}

	err = parseDuration("invalid", &duration)
	if err == nil {
		t.Error("Expected error for invalid duration, but got none")
	}
}

func TestParseInt(t *testing.T) {
	var value int

	err := parseInt("42", &value)
	if err != nil {
		t.Errorf("Failed to parse int: %v", err)
	}
	if value != 42 {
		t.Errorf("Expected 42, got %d", value)
	}

	err = parseInt("not-a-number", &value)
	if err == nil {
		t.Error("Expected error for invalid int, but got none")
	}
}

func TestParseBool(t *testing.T) {
	var value bool

	if err := parseBool("true", &value); err != nil || !value {
		t.Errorf("Expected true, got %v (%v)", value, err)
	}
	if err := parseBool("false", &value); err != nil || value {
		t.Errorf("Expected false, got %v (%v)", value, err)
	}
	if err := parseBool("not-a-bool", &value); err == nil {
		t.Error("Expected error for invalid bool, but got none")
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	if path, found := FindConfigFile(); found && path != "/etc/droppad/config.yaml" {
		t.Errorf("Expected no project or user config file, found %s", path)
	}

	tempConfigPath := "./.droppad.yaml"
	if err := os.WriteFile(tempConfigPath, []byte("version: 1.0"), 0o600); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	configPath, found := FindConfigFile()
	if !found {
		t.Error("Expected config file to be found, but none was found")
	}
	if configPath != tempConfigPath {
		t.Errorf("Expected config path %s, got %s", tempConfigPath, configPath)
	}
}

func TestFileExists(t *testing.T) {
	if fileExists("/path/that/does/not/exist") {
		t.Error("Expected file to not exist, but fileExists returned true")
	}

	tempFile := filepath.Join(t.TempDir(), "test-file")
	if err := os.WriteFile(tempFile, []byte("test"), 0o600); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	if !fileExists(tempFile) {
		t.Error("Expected file to exist, but fileExists returned false")
	}
}

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
		errMsg  string
	}{
		{name: "valid yaml file", path: "config.yaml"},
		{name: "valid yml file", path: "config.yml"},
		{name: "relative path with valid extension", path: "./configs/app.yaml"},
		{name: "path traversal attempt", path: "../../../etc/passwd", wantErr: true, errMsg: "path traversal not allowed"},
		{name: "non-yaml file", path: "config.txt", wantErr: true, errMsg: "config file must have .yaml or .yml extension"},
		{name: "system file access", path: "/etc/passwd.yaml", wantErr: true, errMsg: "access to system files not allowed"},
		{name: "proc filesystem access", path: "/proc/version.yaml", wantErr: true, errMsg: "access to system files not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfigPath(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got none")
				} else if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Expected error message to contain '%s', got '%s'", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
