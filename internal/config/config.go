// Package config handles configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Lock    LockConfig    `mapstructure:"lock"`
	Effect  EffectConfig  `mapstructure:"effect"`
	Logind  LogindConfig  `mapstructure:"logind"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// LockConfig contains lock session settings
type LockConfig struct {
	UnlockKey uint32 `mapstructure:"unlock_key"` // Raw evdev key code
}

// EffectConfig describes the animated background
type EffectConfig struct {
	TopColor    string `mapstructure:"top_color"`
	BottomColor string `mapstructure:"bottom_color"`
	PeriodMs    int    `mapstructure:"period_ms"`
}

// Period returns PeriodMs as a duration.
func (e EffectConfig) Period() time.Duration {
	return time.Duration(e.PeriodMs) * time.Millisecond
}

// LogindConfig controls the logind integration
type LogindConfig struct {
	LockedHint bool `mapstructure:"locked_hint"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Lock: LockConfig{
			UnlockKey: 1, // KEY_ESC
		},
		Effect: EffectConfig{
			TopColor:    "#1e1e2e",
			BottomColor: "#89b4fa",
			PeriodMs:    8000,
		},
		Logind: LogindConfig{
			LockedHint: true,
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
		},
	}

	cfg *Config

	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init reads the config file, if any, on top of the defaults
func Init() error {
	viper.SetConfigName("shimmerlock")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		viper.AddConfigPath("/etc/shimmerlock")
		if home := os.Getenv("HOME"); home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", "shimmerlock"))
		}
		viper.AddConfigPath(".")
	}

	viper.SetDefault("lock.unlock_key", DefaultConfig.Lock.UnlockKey)
	viper.SetDefault("effect.top_color", DefaultConfig.Effect.TopColor)
	viper.SetDefault("effect.bottom_color", DefaultConfig.Effect.BottomColor)
	viper.SetDefault("effect.period_ms", DefaultConfig.Effect.PeriodMs)
	viper.SetDefault("logind.locked_hint", DefaultConfig.Logind.LockedHint)
	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		d := DefaultConfig
		return &d
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Validate rejects values the locker cannot run with.
func (c *Config) Validate() error {
	if _, err := colorful.Hex(c.Effect.TopColor); err != nil {
		return fmt.Errorf("effect.top_color %q: %w", c.Effect.TopColor, err)
	}
	if _, err := colorful.Hex(c.Effect.BottomColor); err != nil {
		return fmt.Errorf("effect.bottom_color %q: %w", c.Effect.BottomColor, err)
	}
	if c.Effect.PeriodMs <= 0 {
		return fmt.Errorf("effect.period_ms must be positive, got %d", c.Effect.PeriodMs)
	}
	return nil
}
