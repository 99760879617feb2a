package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type InstrumentationConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	BufferSize      int  `mapstructure:"buffer_size"`
	FlushIntervalMs int  `mapstructure:"flush_interval_ms"`
}

// Config holds process-wide settings for the function host. The values the
// escalator needs per invocation live in Function and are read separately.
type Config struct {
	Server           ServerConfig          `mapstructure:"server"`
	Instrumentation  InstrumentationConfig `mapstructure:"instrumentation"`
	Debug            bool                  `mapstructure:"debug"`
	InvokerJWTSecret string                `mapstructure:"invoker_jwt_secret"`
	TriggerCondition string                `mapstructure:"trigger_condition"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthEnabled reports whether invokers must present a signed token.
func (c *Config) AuthEnabled() bool {
	return c.InvokerJWTSecret != ""
}

// Load reads escalator.yaml (optional) and the environment into a Config.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("escalator")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/booking-escalator")

	v.SetDefault("server.port", 3000)
	v.SetDefault("debug", false)
	v.SetDefault("invoker_jwt_secret", "")
	v.SetDefault("trigger_condition", "")
	v.SetDefault("instrumentation.enabled", true)
	v.SetDefault("instrumentation.buffer_size", 100)
	v.SetDefault("instrumentation.flush_interval_ms", 1000)

	v.AutomaticEnv()
	// Flat names are what function platforms expose.
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("debug", "DEBUG")
	_ = v.BindEnv("invoker_jwt_secret", "INVOKER_JWT_SECRET")
	_ = v.BindEnv("trigger_condition", "TRIGGER_CONDITION")
	_ = v.BindEnv("instrumentation.enabled", "INSTRUMENTATION_ENABLED")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Server.Port <= 0 {
		return nil, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Instrumentation.BufferSize <= 0 {
		cfg.Instrumentation.BufferSize = 100
	}
	if cfg.Instrumentation.FlushIntervalMs <= 0 {
		cfg.Instrumentation.FlushIntervalMs = 1000
	}

	return &cfg, nil
}
