// Package config handles configuration loading and validation for pysense.
package config

import (
	"fmt"
	"os"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"

	"github.com/hay-kot/pysense/internal/core/validate"
)

// DisplayMode selects how call signatures are shown.
type DisplayMode string

const (
	// DisplaySplice writes the hint into the buffer line.
	DisplaySplice DisplayMode = "splice"
	// DisplayVirtualText draws the hint as an extmark overlay (Neovim only).
	DisplayVirtualText DisplayMode = "virtual_text"
)

// Config holds the application configuration.
type Config struct {
	Escape            string           `yaml:"escape"`
	UseTabsNotBuffers bool             `yaml:"use_tabs_not_buffers"`
	Signatures        SignaturesConfig `yaml:"signatures"`
	Python            PythonConfig     `yaml:"python"`
	Quickfix          QuickfixConfig   `yaml:"quickfix"`
}

// SignaturesConfig controls the call-signature overlay.
type SignaturesConfig struct {
	Enabled   bool        `yaml:"enabled"`
	Mode      DisplayMode `yaml:"mode"`
	Highlight string      `yaml:"highlight"` // highlight group for virtual_text
}

// PythonConfig controls the analysis engine.
type PythonConfig struct {
	// Paths are extra import roots searched after the file's own directory.
	Paths []string `yaml:"paths"`
	// BufferPatterns select which open buffers are handed to the engine as
	// unsaved modules.
	BufferPatterns []string `yaml:"buffer_patterns"`
	MaxFileSize    int64    `yaml:"max_file_size"`
}

// QuickfixConfig controls the quickfix window.
type QuickfixConfig struct {
	MaxHeight int `yaml:"max_height"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Escape:            "≡",
		UseTabsNotBuffers: true,
		Signatures: SignaturesConfig{
			Enabled:   true,
			Mode:      DisplaySplice,
			Highlight: "Comment",
		},
		Python: PythonConfig{
			Paths:          []string{},
			BufferPatterns: []string{"**/*.py", "**/*.pyi"},
			MaxFileSize:    1 << 20,
		},
		Quickfix: QuickfixConfig{
			MaxHeight: 10,
		},
	}
}

// Load reads configuration from the given path. If configPath is empty or
// doesn't exist, returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Escape == "" {
		c.Escape = defaults.Escape
	}
	if c.Signatures.Mode == "" {
		c.Signatures.Mode = defaults.Signatures.Mode
	}
	if c.Signatures.Highlight == "" {
		c.Signatures.Highlight = defaults.Signatures.Highlight
	}
	if c.Python.BufferPatterns == nil {
		c.Python.BufferPatterns = defaults.Python.BufferPatterns
	}
	if c.Python.MaxFileSize == 0 {
		c.Python.MaxFileSize = defaults.Python.MaxFileSize
	}
	if c.Quickfix.MaxHeight == 0 {
		c.Quickfix.MaxHeight = defaults.Quickfix.MaxHeight
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	// The escape delimits overlay markers and is embedded in Vim syntax
	// rules, so it is checked on every load.
	if err := validate.Escape(c.Escape); err != nil {
		return fmt.Errorf("escape: %w", criterio.NewFieldErrors("escape", err))
	}

	switch c.Signatures.Mode {
	case DisplaySplice, DisplayVirtualText:
	default:
		return fmt.Errorf("signatures.mode %q must be %q or %q", c.Signatures.Mode, DisplaySplice, DisplayVirtualText)
	}

	if c.Python.MaxFileSize < 0 {
		return fmt.Errorf("python.max_file_size must be positive")
	}

	if c.Quickfix.MaxHeight < 1 {
		return fmt.Errorf("quickfix.max_height must be at least 1")
	}

	return nil
}
