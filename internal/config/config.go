// Package config loads runtime settings from FARMSIM_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/talgya/creature-farm/internal/engine"
)

// Config holds every runtime setting. Zero values disable optional features:
// no DatabasePath means no save games, no APIPort means no HTTP API, and no
// AutoAdvance interval means turns advance only on command.
type Config struct {
	CatalogPath  string        `env:"FARMSIM_CATALOG"        envDefault:"data/creatures.csv"`
	DatabasePath string        `env:"FARMSIM_DB"`
	APIPort      int           `env:"FARMSIM_API_PORT"`
	AdminKey     string        `env:"FARMSIM_ADMIN_KEY"`
	CORSOrigins  []string      `env:"FARMSIM_CORS_ORIGINS"   envSeparator:","`
	Seed         int64         `env:"FARMSIM_SEED"`
	RandomOrgKey string        `env:"FARMSIM_RANDOM_ORG_KEY"`
	AutoAdvance  time.Duration `env:"FARMSIM_AUTO_ADVANCE"`
	Starter      string        `env:"FARMSIM_STARTER"        envDefault:"Pikachu"`
	LogLevel     string        `env:"FARMSIM_LOG_LEVEL"      envDefault:"info"`
	Interactive  bool          `env:"FARMSIM_INTERACTIVE"    envDefault:"true"`

	StartingCurrency int     `env:"FARMSIM_STARTING_CURRENCY" envDefault:"100"`
	GachaBaseCost    int     `env:"FARMSIM_GACHA_BASE_COST"   envDefault:"100"`
	GachaIncrement   int     `env:"FARMSIM_GACHA_INCREMENT"   envDefault:"100"`
	MatchWeight      float64 `env:"FARMSIM_MATCH_WEIGHT"      envDefault:"0.3"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.StartingCurrency < 0 {
		return fmt.Errorf("FARMSIM_STARTING_CURRENCY must be >= 0, got %d", c.StartingCurrency)
	}
	if c.GachaBaseCost < 0 || c.GachaIncrement < 0 {
		return fmt.Errorf("gacha costs must be >= 0, got base=%d increment=%d", c.GachaBaseCost, c.GachaIncrement)
	}
	if c.MatchWeight < 0 || c.MatchWeight > 1 {
		return fmt.Errorf("FARMSIM_MATCH_WEIGHT must be in [0, 1], got %v", c.MatchWeight)
	}
	if c.APIPort < 0 || c.APIPort > 65535 {
		return fmt.Errorf("FARMSIM_API_PORT out of range: %d", c.APIPort)
	}
	if c.AutoAdvance < 0 {
		return fmt.Errorf("FARMSIM_AUTO_ADVANCE must be >= 0, got %s", c.AutoAdvance)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Rules converts the economy settings into engine rules.
func (c Config) Rules() engine.Rules {
	return engine.Rules{
		StartingCurrency: c.StartingCurrency,
		GachaBaseCost:    c.GachaBaseCost,
		GachaIncrement:   c.GachaIncrement,
		MatchWeight:      c.MatchWeight,
	}
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("FARMSIM_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}
