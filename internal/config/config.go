// Package config loads the application settings file. All fields are
// optional pointers so a partial JSON document only overrides what it
// names; the Get* accessors supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// AppConfig is the root settings document. The schema matches the flags
// accepted by the server binary so the same names work in both places.
type AppConfig struct {
	// Server params
	ListenAddr   *string `json:"listen_addr,omitempty"`
	ReadTimeout  *string `json:"read_timeout,omitempty"`  // duration string like "15s"
	WriteTimeout *string `json:"write_timeout,omitempty"` // duration string like "30s"

	// Storage params
	DatabasePath *string `json:"database_path,omitempty"`
	FormsDir     *string `json:"forms_dir,omitempty"`

	// Reporting params
	BaselineYear       *int `json:"baseline_year,omitempty"`
	CollationSpanYears *int `json:"collation_span_years,omitempty"`
}

// EmptyAppConfig returns an AppConfig with all fields set to nil.
// Use Load to populate it from a settings file.
func EmptyAppConfig() *AppConfig {
	return &AppConfig{}
}

// Load reads an AppConfig from a JSON file. The file must have a .json
// extension and stay under the max file size. Fields omitted from the
// JSON keep their defaults, so partial configs are safe.
func Load(path string) (*AppConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAppConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *AppConfig) Validate() error {
	if c.ReadTimeout != nil && *c.ReadTimeout != "" {
		if _, err := time.ParseDuration(*c.ReadTimeout); err != nil {
			return fmt.Errorf("invalid read_timeout '%s': %w", *c.ReadTimeout, err)
		}
	}
	if c.WriteTimeout != nil && *c.WriteTimeout != "" {
		if _, err := time.ParseDuration(*c.WriteTimeout); err != nil {
			return fmt.Errorf("invalid write_timeout '%s': %w", *c.WriteTimeout, err)
		}
	}
	if c.BaselineYear != nil {
		if *c.BaselineYear < 1990 || *c.BaselineYear > 2100 {
			return fmt.Errorf("baseline_year out of range: %d", *c.BaselineYear)
		}
	}
	if c.CollationSpanYears != nil {
		if *c.CollationSpanYears < 1 {
			return fmt.Errorf("collation_span_years must be positive, got %d", *c.CollationSpanYears)
		}
	}
	return nil
}

// GetListenAddr returns the listen_addr value or the default.
func (c *AppConfig) GetListenAddr() string {
	if c.ListenAddr == nil || *c.ListenAddr == "" {
		return ":8080"
	}
	return *c.ListenAddr
}

// GetReadTimeout parses and returns the ReadTimeout as a time.Duration.
func (c *AppConfig) GetReadTimeout() time.Duration {
	if c.ReadTimeout == nil || *c.ReadTimeout == "" {
		return 15 * time.Second
	}
	d, err := time.ParseDuration(*c.ReadTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GetWriteTimeout parses and returns the WriteTimeout as a time.Duration.
func (c *AppConfig) GetWriteTimeout() time.Duration {
	if c.WriteTimeout == nil || *c.WriteTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(*c.WriteTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetDatabasePath returns the database_path value or the default.
func (c *AppConfig) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return "inventory.db"
	}
	return *c.DatabasePath
}

// GetFormsDir returns the forms_dir value or the default.
func (c *AppConfig) GetFormsDir() string {
	if c.FormsDir == nil || *c.FormsDir == "" {
		return "forms"
	}
	return *c.FormsDir
}

// GetBaselineYear returns the baseline_year value or the default.
func (c *AppConfig) GetBaselineYear() int {
	if c.BaselineYear == nil {
		return 2023
	}
	return *c.BaselineYear
}

// GetCollationSpanYears returns the collation_span_years value or the default.
func (c *AppConfig) GetCollationSpanYears() int {
	if c.CollationSpanYears == nil {
		return 10
	}
	return *c.CollationSpanYears
}
