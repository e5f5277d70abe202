// Package config loads the gojolite YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	pagemanager "github.com/sushant-115/gojolite/core/write_engine/page_manager"
	"github.com/sushant-115/gojolite/pkg/logger"
	"github.com/sushant-115/gojolite/pkg/telemetry"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// DatabaseConfig locates and tunes the table file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
	// InternalMaxCells caps internal node fan-out; 0 keeps the page-derived maximum.
	InternalMaxCells int `yaml:"internal_max_cells"`
}

type Config struct {
	Database  DatabaseConfig   `yaml:"database"`
	Logger    logger.Config    `yaml:"logger"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Path: "data/gojolite.db",
		},
		Logger: logger.Config{
			Level:      "warn",
			Format:     "console",
			OutputFile: "stderr",
		},
		Telemetry: telemetry.Config{
			Enabled:          false,
			ServiceName:      logger.ServiceName,
			PrometheusPort:   9464,
			TraceSampleRatio: 1.0,
		},
	}
}

// Load reads path over the defaults, so keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if n := c.Database.InternalMaxCells; n != 0 && (n < 2 || n > pagemanager.InternalNodeMaxCells) {
		return fmt.Errorf("%w: database.internal_max_cells must be 0 or within [2, %d], got %d",
			ErrInvalidConfig, pagemanager.InternalNodeMaxCells, n)
	}
	if c.Telemetry.PrometheusPort < 0 || c.Telemetry.PrometheusPort > 65535 {
		return fmt.Errorf("%w: telemetry.prometheus_port %d out of range", ErrInvalidConfig, c.Telemetry.PrometheusPort)
	}
	return nil
}
