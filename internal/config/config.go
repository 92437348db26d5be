// Package config provides configuration management for the option engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	apperrors "bsm-engine/internal/errors"
	"bsm-engine/internal/models"
)

// FileName is the base name of the main configuration file.
const FileName = "config"

// Config holds all application configuration.
type Config struct {
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Store    StoreConfig    `mapstructure:"store"`
	Log      LogConfig      `mapstructure:"log"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-"`
	// Created reports whether a template was written during Load.
	Created bool `mapstructure:"-"`
}

// DefaultsConfig holds the contract and run parameters used when a flag is omitted.
type DefaultsConfig struct {
	Spot         float64 `mapstructure:"spot"`
	Strike       float64 `mapstructure:"strike"`
	Maturity     float64 `mapstructure:"maturity"`       // years
	RiskFreeRate float64 `mapstructure:"risk_free_rate"` // decimal fraction
	Volatility   float64 `mapstructure:"volatility"`     // decimal fraction
	OptionType   string  `mapstructure:"option_type"`    // Call, Put
	Timescale    string  `mapstructure:"timescale"`      // Daily, Weekly, Yearly
	Steps        int     `mapstructure:"steps"`
	Shares       int     `mapstructure:"shares"`
	GreeksPoints int     `mapstructure:"greeks_points"`
}

// StoreConfig holds session store configuration.
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, memory
	Path   string `mapstructure:"path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/bsm-engine"
	}
	return filepath.Join(home, ".config", "bsm-engine")
}

// Path returns the config file path inside configDir.
func Path(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, FileName+".toml")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing file is
// replaced by the commented template and the built-in defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{Dir: configDir}

	created, err := loadConfigFile(configDir, FileName, cfg)
	if err != nil {
		return nil, fmt.Errorf("loading %s.toml: %w", FileName, err)
	}
	cfg.Created = created

	applyEnvOverrides(cfg)

	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(configDir, "sessions.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration without touching the filesystem.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("defaults.spot", 100.0)
	v.SetDefault("defaults.strike", 100.0)
	v.SetDefault("defaults.maturity", 1.0)
	v.SetDefault("defaults.risk_free_rate", 0.05)
	v.SetDefault("defaults.volatility", 0.20)
	v.SetDefault("defaults.option_type", string(models.OptionTypeCall))
	v.SetDefault("defaults.timescale", string(models.TimescaleDaily))
	v.SetDefault("defaults.steps", 252)
	v.SetDefault("defaults.shares", 100)
	v.SetDefault("defaults.greeks_points", 50)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)
	v.SetDefault("log.file", true)
}

func loadConfigFile(configDir, name string, target interface{}) (bool, error) {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	created := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return false, err
		}
		if err := createTemplateConfig(configDir, name); err != nil {
			return false, err
		}
		created = true
	}

	return created, v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BSM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BSM_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("BSM_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := c.Params(); err != nil {
		return err
	}
	if _, err := models.ParseOptionType(c.Defaults.OptionType); err != nil {
		return err
	}
	if _, err := models.ParseTimescale(c.Defaults.Timescale); err != nil {
		return err
	}
	if c.Defaults.Steps < 0 {
		return apperrors.NewValidationError("defaults.steps", c.Defaults.Steps, "must not be negative")
	}
	if c.Defaults.Shares < 0 {
		return apperrors.NewValidationError("defaults.shares", c.Defaults.Shares, "must not be negative")
	}
	if c.Defaults.GreeksPoints < 1 {
		return apperrors.NewValidationError("defaults.greeks_points", c.Defaults.GreeksPoints, "must be at least 1")
	}

	switch c.Store.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("%w: invalid store driver: %s (must be 'sqlite' or 'memory')", apperrors.ErrConfigInvalid, c.Store.Driver)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: invalid log level: %s", apperrors.ErrConfigInvalid, c.Log.Level)
	}

	return nil
}

// Params returns the default ParameterSet.
func (c *Config) Params() (models.ParameterSet, error) {
	d := c.Defaults
	return models.NewParameterSet(d.Spot, d.Strike, d.Maturity, d.RiskFreeRate, d.Volatility)
}
