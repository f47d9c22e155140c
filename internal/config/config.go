package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Backend BackendConfig `koanf:"backend"`
	History HistoryConfig `koanf:"history"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
}

type BackendConfig struct {
	URL            string `koanf:"url"`
	PollIntervalMs int    `koanf:"poll_interval_ms"`
	ReconnectDelay string `koanf:"reconnect_delay"`
}

type HistoryConfig struct {
	Limit         int  `koanf:"limit"`
	ExtendedLimit int  `koanf:"extended_limit"`
	Extended      bool `koanf:"extended"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Load reads config from TOML file (if provided) then overlays env vars.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, err
		}
	}

	// Env vars: GB_BACKEND_URL -> backend.url. Empty values are
	// skipped so they never override the TOML config.
	if err := k.Load(env.ProviderWithValue("GB_", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		mapped := strings.Replace(
			strings.ToLower(strings.TrimPrefix(key, "GB_")),
			"_", ".", -1,
		)
		return mapped, value
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PollInterval returns the configured poll cadence, floored at 250ms.
func (c *Config) PollInterval() time.Duration {
	ms := c.Backend.PollIntervalMs
	if ms < 250 {
		ms = 250
	}
	return time.Duration(ms) * time.Millisecond
}

// ReconnectDelay returns the push-channel reconnect delay.
func (c *Config) ReconnectDelay() time.Duration {
	d, err := time.ParseDuration(c.Backend.ReconnectDelay)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}

// HistoryLimit returns the effective result-history bound.
func (c *Config) HistoryLimit() int {
	if c.History.Extended {
		return c.History.ExtendedLimit
	}
	return c.History.Limit
}
