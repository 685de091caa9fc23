package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", cfg.Version)
	}

	if cfg.Analysis.RevealDelay != 2*time.Second {
		t.Errorf("Expected reveal delay 2s, got %v", cfg.Analysis.RevealDelay)
	}

	if cfg.Analysis.ResetDelay != 3*time.Second {
		t.Errorf("Expected reset delay 3s, got %v", cfg.Analysis.ResetDelay)
	}

	if cfg.UI.Theme != "default" {
		t.Errorf("Expected theme default, got %s", cfg.UI.Theme)
	}

	if len(cfg.Inbox.PartialSuffixes) != 4 {
		t.Errorf("Expected 4 partial suffixes, got %d", len(cfg.Inbox.PartialSuffixes))
	}

	if cfg.Server.Address() != "127.0.0.1:8080" {
		t.Errorf("Expected address 127.0.0.1:8080, got %s", cfg.Server.Address())
	}
}

func TestConfigValidation(t *testing.T) {
	valid := func(mutate func(*Config)) *Config {
		cfg := DefaultConfig()
		mutate(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name:    "zero reveal delay",
			config:  valid(func(c *Config) { c.Analysis.RevealDelay = 0 }),
			wantErr: true,
			errMsg:  "reveal_delay must be positive",
		},
		{
			name:    "negative reset delay",
			config:  valid(func(c *Config) { c.Analysis.ResetDelay = -time.Second }),
			wantErr: true,
			errMsg:  "reset_delay must be positive",
		},
		{
			name:    "zero settle delay",
			config:  valid(func(c *Config) { c.Inbox.SettleDelay = 0 }),
			wantErr: true,
			errMsg:  "settle_delay must be positive",
		},
		{
			name:    "invalid theme",
			config:  valid(func(c *Config) { c.UI.Theme = "neon" }),
			wantErr: true,
			errMsg:  "invalid theme: neon (must be one of: default, high-contrast, minimal)",
		},
		{
			name:    "invalid color mode",
			config:  valid(func(c *Config) { c.Output.ColorMode = "invalid" }),
			wantErr: true,
			errMsg:  "invalid color mode: invalid (must be one of: auto, always, never)",
		},
		{
			name:    "port out of range",
			config:  valid(func(c *Config) { c.Server.Port = 70000 }),
			wantErr: true,
			errMsg:  "invalid port: 70000 (must be between 0 and 65535)",
		},
		{
			name:    "zero max sessions",
			config:  valid(func(c *Config) { c.Server.MaxSessions = 0 }),
			wantErr: true,
			errMsg:  "max_sessions must be greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errMsg != "" && err.Error() != tt.errMsg {
					t.Errorf("Expected error message '%s', got '%s'", tt.errMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
			}
		})
	}
}

func TestSampleConfigsAreValid(t *testing.T) {
	for name, content := range map[string]string{
		"full":    SampleConfig(),
		"minimal": MinimalSampleConfig(),
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
				t.Fatalf("sample does not parse: %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("sample does not validate: %v", err)
			}
			if cfg.Analysis.RevealDelay != 2*time.Second || cfg.Analysis.ResetDelay != 3*time.Second {
				t.Errorf("unexpected delays %v/%v", cfg.Analysis.RevealDelay, cfg.Analysis.ResetDelay)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "relative path",
			input:    "./config.yaml",
			expected: "./config.yaml",
		},
		{
			name:     "absolute path",
			input:    "/etc/droppad/config.yaml",
			expected: "/etc/droppad/config.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := expandPath(tt.input); result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
		})
	}

	t.Run("home directory path", func(t *testing.T) {
		t.Setenv("HOME", "/home/tester")
		if got := ExpandPath("~/.config/droppad/config.yaml"); got != "/home/tester/.config/droppad/config.yaml" {
			t.Errorf("Expected tilde to be expanded, got %s", got)
		}
	})
}

func TestGetConfigPaths(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	paths := GetConfigPaths()
	expectedPaths := []string{
		"./.droppad.yaml",
		"/home/tester/.config/droppad/config.yaml",
		"/etc/droppad/config.yaml",
	}

	if len(paths) != len(expectedPaths) {
		t.Fatalf("Expected %d config paths, got %d", len(expectedPaths), len(paths))
	}
	for i, expectedPath := range expectedPaths {
		if paths[i] != expectedPath {
			t.Errorf("Expected path %s, got %s", expectedPath, paths[i])
		}
	}
}
