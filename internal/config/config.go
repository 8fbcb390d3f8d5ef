package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full server configuration, loaded from an optional YAML
// file and overridable via AUTHGATE_* environment variables.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects the account/profile backend
type StorageConfig struct {
	Type  string      `yaml:"type"`
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL string `yaml:"url"`
}

// CacheConfig selects the local key-value cache backend
type CacheConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// SessionConfig holds session lifetime settings
type SessionConfig struct {
	TTL Duration `yaml:"ttl"`
}

// Duration wraps time.Duration so YAML values like "24h" parse
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 7420,
		},
		Storage: StorageConfig{
			Type: "memory",
		},
		Cache: CacheConfig{
			Type: "memory",
			Path: "authgate-cache.db",
		},
		Session: SessionConfig{
			TTL: Duration(24 * time.Hour),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("AUTHGATE_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("AUTHGATE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUTHGATE_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("AUTHGATE_STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("AUTHGATE_REDIS_URL"); v != "" {
		c.Storage.Redis.URL = v
	}
	if v := os.Getenv("AUTHGATE_CACHE_TYPE"); v != "" {
		c.Cache.Type = v
	}
	if v := os.Getenv("AUTHGATE_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("AUTHGATE_SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("AUTHGATE_SESSION_TTL: %w", err)
		}
		c.Session.TTL = Duration(ttl)
	}
	if v := os.Getenv("AUTHGATE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Storage.Type {
	case "memory":
	case "redis":
		if c.Storage.Redis.URL == "" {
			return fmt.Errorf("storage.redis.url required when storage.type is redis")
		}
	default:
		return fmt.Errorf("invalid storage.type %q", c.Storage.Type)
	}

	switch c.Cache.Type {
	case "memory":
	case "sqlite":
		if c.Cache.Path == "" {
			return fmt.Errorf("cache.path required when cache.type is sqlite")
		}
	default:
		return fmt.Errorf("invalid cache.type %q", c.Cache.Type)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}

	return nil
}
