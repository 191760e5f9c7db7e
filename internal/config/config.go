package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the full application configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Local    LocalConfig    `yaml:"local"`
	Sync     SyncConfig     `yaml:"sync"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST"`
	Port int    `yaml:"port" env:"HTTP_PORT"`
}

// DatabaseConfig configures the hosted station database.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_DSN"`
}

// RedisConfig configures the snapshot cache and change feed.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"REDIS_CACHE_TTL"`
}

// LocalConfig configures the on-disk store for the offline queue and user
// preferences.
type LocalConfig struct {
	Path string `yaml:"path" env:"LOCAL_STORE_PATH"`
}

// SyncConfig configures connectivity probing and queue replay.
type SyncConfig struct {
	Debounce        time.Duration `yaml:"debounce" env:"SYNC_DEBOUNCE"`
	ProbeInterval   time.Duration `yaml:"probe_interval" env:"SYNC_PROBE_INTERVAL"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"SYNC_REFRESH_INTERVAL"`
}

// Load reads configuration from the optional YAML file and environment,
// applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{Port: 8080},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			CacheTTL: 5 * time.Minute,
		},
		Local: LocalConfig{Path: "chargesure.db"},
		Sync: SyncConfig{
			Debounce:        2 * time.Second,
			ProbeInterval:   15 * time.Second,
			RefreshInterval: 5 * time.Minute,
		},
	}

	if err := load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return errors.New("config: DATABASE_DSN is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: invalid http port %d", c.HTTP.Port)
	}
	if c.Sync.Debounce < 0 || c.Sync.ProbeInterval <= 0 || c.Sync.RefreshInterval <= 0 {
		return errors.New("config: sync intervals must be positive")
	}
	return nil
}

// HTTPAddress returns the host:port the API listens on.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}
