// Package config provides configuration loading and management for niftivol.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"niftivol/pkg/nifti"
	"niftivol/pkg/niftiio"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Load parameters applied after reading the input volume
	Load struct {
		// MaskFile is a NIfTI volume multiplied into the input
		MaskFile string `yaml:"maskFile,omitempty"`

		// Zoom holds one factor for all axes or one factor per axis
		Zoom []float64 `yaml:"zoom,omitempty"`

		// RemoveNaN replaces non-finite voxels before masking
		RemoveNaN bool `yaml:"removeNaN"`
	} `yaml:"load"`

	// Save parameters
	Save struct {
		// Datatype of written voxels, float32 or float64
		Datatype string `yaml:"datatype"`
	} `yaml:"save"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// LogFile sends log output to a rotating file instead of stderr
		LogFile string `yaml:"logFile,omitempty"`

		// MaxLogSize is the size in megabytes at which the log file rotates
		MaxLogSize int `yaml:"maxLogSize"`

		// MaxLogAge is the number of days rotated log files are kept
		MaxLogAge int `yaml:"maxLogAge"`
	} `yaml:"output"`

	// Slices parameters for PNG export
	Slices struct {
		Extract bool     `yaml:"extract"`
		Dir     string   `yaml:"dir"`
		Axes    []string `yaml:"axes"`
	} `yaml:"slices"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Save.Datatype = nifti.Float32.String()

	cfg.Output.Verbose = true
	cfg.Output.MaxLogSize = 100
	cfg.Output.MaxLogAge = 28

	cfg.Slices.Dir = "slices"
	cfg.Slices.Axes = []string{"x", "y", "z"}

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate checks values that cannot be caught by YAML decoding
func (c *Config) Validate() error {
	if _, err := nifti.ParseDatatype(c.Save.Datatype); err != nil {
		return err
	}
	for _, axis := range c.Slices.Axes {
		switch axis {
		case "x", "y", "z", "X", "Y", "Z":
		default:
			return fmt.Errorf("invalid slice axis %q (must be x, y, or z)", axis)
		}
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// SaveOptions converts the save section into writer options
func (c *Config) SaveOptions() (niftiio.SaveOptions, error) {
	dtype, err := nifti.ParseDatatype(c.Save.Datatype)
	if err != nil {
		return niftiio.SaveOptions{}, err
	}
	return niftiio.SaveOptions{Datatype: dtype}, nil
}
