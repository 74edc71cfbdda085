// Package config loads entitymap settings from YAML with environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Identity strategies
const (
	StrategyUUID     = "uuid"
	StrategySequence = "sequence"
)

// Config holds all configuration for entitymap.
// Environment variables always override YAML values.
type Config struct {
	// LogLevel is a zap level name: debug, info, warn or error.
	LogLevel string `yaml:"log_level" env:"ENTITYMAP_LOG_LEVEL" env-default:"info"`

	Naming   NamingConfig   `yaml:"naming"`
	Cache    CacheConfig    `yaml:"cache"`
	Identity IdentityConfig `yaml:"identity"`
}

// NamingConfig controls how names are derived when a mapping omits them.
type NamingConfig struct {
	// PluralTables derives "cats" instead of "cat" for type Cat.
	PluralTables bool `yaml:"plural_tables" env:"ENTITYMAP_PLURAL_TABLES" env-default:"false"`
	// DiscriminatorColumn is used when a discriminator declares no column.
	DiscriminatorColumn string `yaml:"discriminator_column" env:"ENTITYMAP_DISCRIMINATOR_COLUMN" env-default:"dtype"`
}

// CacheConfig controls the entity identity cache.
type CacheConfig struct {
	// Concurrent selects a store safe for use by several goroutines.
	Concurrent bool `yaml:"concurrent" env:"ENTITYMAP_CACHE_CONCURRENT" env-default:"false"`
}

// IdentityConfig selects the default identifier generator.
type IdentityConfig struct {
	Strategy      string `yaml:"strategy" env:"ENTITYMAP_IDENTITY_STRATEGY" env-default:"uuid"`
	SequenceStart int64  `yaml:"sequence_start" env:"ENTITYMAP_SEQUENCE_START" env-default:"1"`
}

// Load reads configuration from path with environment variable overrides.
// An empty path or a missing file yields defaults plus environment values.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			return cfg, cfg.validate()
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Identity.Strategy {
	case StrategyUUID, StrategySequence:
	default:
		return fmt.Errorf("invalid identity strategy %q (supported: uuid, sequence)", c.Identity.Strategy)
	}
	if c.Naming.DiscriminatorColumn == "" {
		return fmt.Errorf("discriminator_column cannot be empty")
	}
	return nil
}
