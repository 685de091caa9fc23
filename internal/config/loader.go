package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "DROPPAD_"

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.droppad.yaml",               // Project-specific config (highest priority)
	"~/.config/droppad/config.yaml", // User config
	"/etc/droppad/config.yaml",      // System config (lowest priority)
}

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
	warn        func(format string, args ...interface{})
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
		warn: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
		},
	}
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. ./.droppad.yaml
// 4. ~/.config/droppad/config.yaml
// 5. /etc/droppad/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	config := DefaultConfig()

	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, expandPath(customPath)); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// lowest priority first so later files win
		for i := len(l.configPaths) - 1; i >= 0; i-- {
			expandedPath := expandPath(l.configPaths[i])
			if !fileExists(expandedPath) {
				continue
			}
			if err := l.loadFromFile(config, expandedPath); err != nil {
				l.warn("failed to load config from %s: %v", expandedPath, err)
			}
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile overlays a YAML file onto config. Keys absent from the file
// keep their current value, so booleans can be switched off explicitly.
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() or comes from ConfigPaths
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	overlay := *config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	*config = overlay

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// Analysis
		"ANALYSIS_REVEAL_DELAY": func(v string) error { return parseDuration(v, &config.Analysis.RevealDelay) },
		"ANALYSIS_RESET_DELAY":  func(v string) error { return parseDuration(v, &config.Analysis.ResetDelay) },

		// UI
		"UI_THEME":       func(v string) error { config.UI.Theme = v; return nil },
		"UI_ALT_SCREEN":  func(v string) error { return parseBool(v, &config.UI.AltScreen) },
		"UI_MOUSE":       func(v string) error { return parseBool(v, &config.UI.Mouse) },
		"UI_START_DIR":   func(v string) error { config.UI.StartDir = v; return nil },
		"UI_SHOW_HIDDEN": func(v string) error { return parseBool(v, &config.UI.ShowHidden) },
		"UI_LOG_FILE":    func(v string) error { config.UI.LogFile = v; return nil },

		// Inbox
		"INBOX_ENABLED":          func(v string) error { return parseBool(v, &config.Inbox.Enabled) },
		"INBOX_DIR":              func(v string) error { config.Inbox.Dir = v; return nil },
		"INBOX_PARTIAL_SUFFIXES": func(v string) error { config.Inbox.PartialSuffixes = splitList(v); return nil },
		"INBOX_SETTLE_DELAY":     func(v string) error { return parseDuration(v, &config.Inbox.SettleDelay) },

		// Server
		"SERVER_HOST":             func(v string) error { config.Server.Host = v; return nil },
		"SERVER_PORT":             func(v string) error { return parseInt(v, &config.Server.Port) },
		"SERVER_READ_TIMEOUT":     func(v string) error { return parseDuration(v, &config.Server.ReadTimeout) },
		"SERVER_WRITE_TIMEOUT":    func(v string) error { return parseDuration(v, &config.Server.WriteTimeout) },
		"SERVER_IDLE_TIMEOUT":     func(v string) error { return parseDuration(v, &config.Server.IdleTimeout) },
		"SERVER_SESSION_TTL":      func(v string) error { return parseDuration(v, &config.Server.SessionTTL) },
		"SERVER_CLEANUP_INTERVAL": func(v string) error { return parseDuration(v, &config.Server.CleanupInterval) },
		"SERVER_MAX_SESSIONS":     func(v string) error { return parseInt(v, &config.Server.MaxSessions) },
		"SERVER_ACCESS_TOKEN":     func(v string) error { config.Server.AccessToken = v; return nil },
		"SERVER_ALLOW_ORIGINS":    func(v string) error { config.Server.AllowOrigins = splitList(v); return nil },
		"SERVER_REQUEST_LOGGING":  func(v string) error { return parseBool(v, &config.Server.RequestLogging) },

		// Output
		"OUTPUT_COLOR_MODE": func(v string) error { config.Output.ColorMode = v; return nil },
		"OUTPUT_VERBOSE":    func(v string) error { return parseBool(v, &config.Output.Verbose) },
		"OUTPUT_NO_EMOJI":   func(v string) error { return parseBool(v, &config.Output.NoEmoji) },
	}

	for name, setter := range envMappings {
		envVar := EnvPrefix + name
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// ExpandPath expands a leading ~/ to the user's home directory
func ExpandPath(path string) string {
	return expandPath(path)
}

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	absPath, err := filepath.Abs(expandPath(cleanPath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if strings.HasPrefix(absPath, "/etc/passwd") ||
		strings.HasPrefix(absPath, "/etc/shadow") ||
		strings.HasPrefix(absPath, "/proc/") ||
		strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
