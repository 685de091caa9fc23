package config

import (
	"fmt"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Version  string         `yaml:"version" json:"version"`
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`
	UI       UIConfig       `yaml:"ui" json:"ui"`
	Inbox    InboxConfig    `yaml:"inbox" json:"inbox"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Output   OutputConfig   `yaml:"output" json:"output"`
}

// AnalysisConfig configures the simulated analysis stages
type AnalysisConfig struct {
	RevealDelay time.Duration `yaml:"reveal_delay" json:"reveal_delay"` // analyze -> results shown
	ResetDelay  time.Duration `yaml:"reset_delay" json:"reset_delay"`   // results shown -> control idle
	Labels      LabelsConfig  `yaml:"labels" json:"labels"`
}

// LabelsConfig holds the analyze control captions. Empty ones use the defaults.
type LabelsConfig struct {
	Idle string `yaml:"idle" json:"idle"`
	Busy string `yaml:"busy" json:"busy"`
	Done string `yaml:"done" json:"done"`
}

// UIConfig configures the terminal UI
type UIConfig struct {
	Theme      string `yaml:"theme" json:"theme"` // default|high-contrast|minimal
	AltScreen  bool   `yaml:"alt_screen" json:"alt_screen"`
	Mouse      bool   `yaml:"mouse" json:"mouse"`
	StartDir   string `yaml:"start_dir" json:"start_dir"` // picker start directory
	ShowHidden bool   `yaml:"show_hidden" json:"show_hidden"`
	LogFile    string `yaml:"log_file" json:"log_file"` // logs go here while the UI owns the terminal
}

// InboxConfig configures the drop folder
type InboxConfig struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"`
	Dir             string        `yaml:"dir" json:"dir"`
	PartialSuffixes []string      `yaml:"partial_suffixes" json:"partial_suffixes"`
	SettleDelay     time.Duration `yaml:"settle_delay" json:"settle_delay"` // quiet time before a new file counts as dropped
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	SessionTTL      time.Duration `yaml:"session_ttl" json:"session_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
	MaxSessions     int           `yaml:"max_sessions" json:"max_sessions"`
	AccessToken     string        `yaml:"access_token" json:"access_token"` // empty disables the check
	AllowOrigins    []string      `yaml:"allow_origins" json:"allow_origins"`
	RequestLogging  bool          `yaml:"request_logging" json:"request_logging"`
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	ColorMode string `yaml:"color_mode" json:"color_mode"` // auto|always|never
	Verbose   bool   `yaml:"verbose" json:"verbose"`
	NoEmoji   bool   `yaml:"no_emoji" json:"no_emoji"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Analysis: AnalysisConfig{
			RevealDelay: 2 * time.Second,
			ResetDelay:  3 * time.Second,
			Labels: LabelsConfig{
				Idle: "Analyze data",
				Busy: "Processing...",
				Done: "Analysis complete",
			},
		},
		UI: UIConfig{
			Theme:      "default",
			AltScreen:  true,
			Mouse:      true,
			StartDir:   ".",
			ShowHidden: false,
			LogFile:    "",
		},
		Inbox: InboxConfig{
			Enabled:         false,
			Dir:             "~/DropPad",
			PartialSuffixes: []string{".part", ".crdownload", ".tmp", ".download"},
			SettleDelay:     500 * time.Millisecond,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0, // SSE streams stay open
			IdleTimeout:     60 * time.Second,
			SessionTTL:      30 * time.Minute,
			CleanupInterval: time.Minute,
			MaxSessions:     256,
			AccessToken:     "",
			AllowOrigins:    []string{"*"},
			RequestLogging:  true,
		},
		Output: OutputConfig{
			ColorMode: "auto",
			Verbose:   false,
			NoEmoji:   false,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateAnalysisConfig(); err != nil {
		return err
	}
	if err := c.validateUIConfig(); err != nil {
		return err
	}
	if c.Inbox.SettleDelay <= 0 {
		return fmt.Errorf("settle_delay must be positive")
	}
	if err := c.validateServerConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAnalysisConfig() error {
	if c.Analysis.RevealDelay <= 0 {
		return fmt.Errorf("reveal_delay must be positive")
	}
	if c.Analysis.ResetDelay <= 0 {
		return fmt.Errorf("reset_delay must be positive")
	}
	return nil
}

func (c *Config) validateUIConfig() error {
	if c.UI.Theme != "" {
		validThemes := map[string]bool{
			"default":       true,
			"high-contrast": true,
			"minimal":       true,
		}
		if !validThemes[c.UI.Theme] {
			return fmt.Errorf("invalid theme: %s (must be one of: default, high-contrast, minimal)", c.UI.Theme)
		}
	}
	return nil
}

func (c *Config) validateServerConfig() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 0 and 65535)", c.Server.Port)
	}
	if c.Server.MaxSessions <= 0 {
		return fmt.Errorf("max_sessions must be greater than 0")
	}
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if c.Server.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup_interval must be positive")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 {
		return fmt.Errorf("server timeouts must be non-negative")
	}
	return nil
}

func (c *Config) validateOutputConfig() error {
	if c.Output.ColorMode != "" {
		validModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	return nil
}

// Address returns the host:port the server listens on
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
