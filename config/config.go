// Package config provides configuration management for the photo
// progress tracker.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// Storage configuration
	DatabasePath string `yaml:"database_path"`

	// Compression configuration
	MaxImageSizeKB int `yaml:"max_image_size_kb"`
	MaxDimension   int `yaml:"max_dimension"`
	QualityStart   int `yaml:"quality_start"`
	QualityFloor   int `yaml:"quality_floor"`
	QualityStep    int `yaml:"quality_step"`

	// Automatic backup configuration
	Backup BackupConfig `yaml:"backup"`
}

// BackupConfig configures periodic automatic exports.
type BackupConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Interval  string `yaml:"interval"`
	Directory string `yaml:"directory"`
	KeepLast  int    `yaml:"keep_last"`
}

// Default returns a configuration with default values.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".phototrack")

	return &Config{
		DatabasePath:   filepath.Join(dataDir, "phototrack.db"),
		MaxImageSizeKB: 500,
		MaxDimension:   1920,
		QualityStart:   90,
		QualityFloor:   10,
		QualityStep:    10,
		Backup: BackupConfig{
			Enabled:   false,
			Interval:  "24h",
			Directory: filepath.Join(dataDir, "backups"),
			KeepLast:  7,
		},
	}
}

// LoadConfig loads configuration from a YAML file with fallback to
// defaults. A missing file is not an error; the defaults apply.
func LoadConfig(filename string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path cannot be empty")
	}

	if c.MaxImageSizeKB < 1 {
		return fmt.Errorf("max_image_size_kb must be positive, got %d", c.MaxImageSizeKB)
	}

	if c.MaxDimension < 1 {
		return fmt.Errorf("max_dimension must be positive, got %d", c.MaxDimension)
	}

	if c.QualityStart < 1 || c.QualityStart > 100 {
		return fmt.Errorf("quality_start must be between 1 and 100, got %d", c.QualityStart)
	}

	if c.QualityFloor < 1 || c.QualityFloor > c.QualityStart {
		return fmt.Errorf("quality_floor must be between 1 and quality_start (%d), got %d", c.QualityStart, c.QualityFloor)
	}

	if c.QualityStep < 1 {
		return fmt.Errorf("quality_step must be positive, got %d", c.QualityStep)
	}

	if c.Backup.Enabled {
		if err := c.validateBackupConfig(); err != nil {
			return fmt.Errorf("invalid backup configuration: %w", err)
		}
	}

	return nil
}

// validateBackupConfig validates automatic backup settings.
func (c *Config) validateBackupConfig() error {
	if c.Backup.Directory == "" {
		return fmt.Errorf("directory cannot be empty when backup is enabled")
	}

	interval, err := time.ParseDuration(c.Backup.Interval)
	if err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}
	if interval < time.Minute {
		return fmt.Errorf("interval must be at least 1m, got %s", c.Backup.Interval)
	}

	if c.Backup.KeepLast < 1 {
		return fmt.Errorf("keep_last must be at least 1, got %d", c.Backup.KeepLast)
	}

	return nil
}

// GetBackupInterval returns the backup interval as a time.Duration.
func (c *Config) GetBackupInterval() time.Duration {
	duration, _ := time.ParseDuration(c.Backup.Interval)
	return duration
}

// MaxImageSizeBytes returns the stored-image size budget in bytes.
func (c *Config) MaxImageSizeBytes() int64 {
	return int64(c.MaxImageSizeKB) * 1024
}
