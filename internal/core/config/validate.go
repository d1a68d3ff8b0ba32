package config

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration
// including glob syntax and file accessibility. The configPath argument
// specifies the config file location to validate (empty string skips config
// file check). This calls Validate() first for basic structural validation,
// then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		c.validateBufferPatterns(),
		c.validatePaths(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if len(c.Python.BufferPatterns) == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "Python",
			Item:     "buffer_patterns",
			Message:  "no buffer patterns; unsaved changes in other buffers are ignored",
		})
	}

	if c.Signatures.Mode == DisplayVirtualText && !c.Signatures.Enabled {
		warnings = append(warnings, ValidationWarning{
			Category: "Signatures",
			Item:     "mode",
			Message:  "mode is set but signatures are disabled",
		})
	}

	return warnings
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

func (c *Config) validateBufferPatterns() error {
	var errs criterio.FieldErrorsBuilder
	for i, pattern := range c.Python.BufferPatterns {
		if !doublestar.ValidatePattern(pattern) {
			errs = errs.Append(fmt.Sprintf("python.buffer_patterns[%d]", i), fmt.Errorf("invalid glob %q", pattern))
		}
	}
	return errs.ToError()
}

func (c *Config) validatePaths() error {
	var errs criterio.FieldErrorsBuilder
	for i, path := range c.Python.Paths {
		info, err := os.Stat(path)
		switch {
		case err != nil:
			errs = errs.Append(fmt.Sprintf("python.paths[%d]", i), fmt.Errorf("directory not found: %s", path))
		case !info.IsDir():
			errs = errs.Append(fmt.Sprintf("python.paths[%d]", i), fmt.Errorf("%s is not a directory", path))
		}
	}
	return errs.ToError()
}
