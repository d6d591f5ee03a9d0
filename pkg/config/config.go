package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the authorization service configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds the postgres connection configuration.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds the redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig tunes the permission cache.
type CacheConfig struct {
	TTL              time.Duration
	DebounceInterval time.Duration
}

// RateLimitConfig tunes the per-tenant mutation limiter.
type RateLimitConfig struct {
	Limit    int
	Window   time.Duration
	Disabled bool
}

// Load builds the configuration from environment variables, with an
// optional YAML overlay named by AUTHZ_CONFIG_FILE applied on top.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("AUTHZ_SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("AUTHZ_SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("AUTHZ_SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("AUTHZ_SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvDuration("AUTHZ_SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("AUTHZ_DATABASE_URL", "postgres://localhost:5432/plexica?sslmode=disable"),
			MaxOpenConns:    getEnvInt("AUTHZ_DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("AUTHZ_DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("AUTHZ_DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("AUTHZ_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("AUTHZ_REDIS_PASSWORD", ""),
			DB:       getEnvInt("AUTHZ_REDIS_DB", 0),
		},
		Cache: CacheConfig{
			TTL:              getEnvDuration("AUTHZ_CACHE_TTL", 5*time.Minute),
			DebounceInterval: getEnvDuration("AUTHZ_CACHE_DEBOUNCE_INTERVAL", 300*time.Millisecond),
		},
		RateLimit: RateLimitConfig{
			Limit:    getEnvInt("AUTHZ_RATELIMIT_MAX", 60),
			Window:   getEnvDuration("AUTHZ_RATELIMIT_WINDOW", 60*time.Second),
			Disabled: getEnvBool("AUTHZ_RATELIMIT_DISABLED", false),
		},
		LogLevel: getEnv("AUTHZ_LOG_LEVEL", "info"),
	}

	if path := os.Getenv("AUTHZ_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if c.Cache.DebounceInterval <= 0 {
		return fmt.Errorf("cache debounce interval must be positive")
	}
	if c.RateLimit.Limit <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}
	return nil
}

// fileConfig mirrors Config for the YAML overlay. Durations are strings
// in time.ParseDuration form; absent fields leave the env value intact.
type fileConfig struct {
	Server struct {
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Database struct {
		URL             string `yaml:"url"`
		MaxOpenConns    int    `yaml:"max_open_conns"`
		MaxIdleConns    int    `yaml:"max_idle_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       *int   `yaml:"db"`
	} `yaml:"redis"`
	Cache struct {
		TTL              string `yaml:"ttl"`
		DebounceInterval string `yaml:"debounce_interval"`
	} `yaml:"cache"`
	RateLimit struct {
		Limit    int    `yaml:"limit"`
		Window   string `yaml:"window"`
		Disabled *bool  `yaml:"disabled"`
	} `yaml:"rate_limit"`
	LogLevel string `yaml:"log_level"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}

	if fc.Server.Host != "" {
		c.Server.Host = fc.Server.Host
	}
	if fc.Server.Port != 0 {
		c.Server.Port = fc.Server.Port
	}
	if err := overlayDuration(&c.Server.ReadTimeout, fc.Server.ReadTimeout); err != nil {
		return err
	}
	if err := overlayDuration(&c.Server.WriteTimeout, fc.Server.WriteTimeout); err != nil {
		return err
	}
	if err := overlayDuration(&c.Server.ShutdownTimeout, fc.Server.ShutdownTimeout); err != nil {
		return err
	}

	if fc.Database.URL != "" {
		c.Database.URL = fc.Database.URL
	}
	if fc.Database.MaxOpenConns != 0 {
		c.Database.MaxOpenConns = fc.Database.MaxOpenConns
	}
	if fc.Database.MaxIdleConns != 0 {
		c.Database.MaxIdleConns = fc.Database.MaxIdleConns
	}
	if err := overlayDuration(&c.Database.ConnMaxLifetime, fc.Database.ConnMaxLifetime); err != nil {
		return err
	}

	if fc.Redis.Addr != "" {
		c.Redis.Addr = fc.Redis.Addr
	}
	if fc.Redis.Password != "" {
		c.Redis.Password = fc.Redis.Password
	}
	if fc.Redis.DB != nil {
		c.Redis.DB = *fc.Redis.DB
	}

	if err := overlayDuration(&c.Cache.TTL, fc.Cache.TTL); err != nil {
		return err
	}
	if err := overlayDuration(&c.Cache.DebounceInterval, fc.Cache.DebounceInterval); err != nil {
		return err
	}

	if fc.RateLimit.Limit != 0 {
		c.RateLimit.Limit = fc.RateLimit.Limit
	}
	if err := overlayDuration(&c.RateLimit.Window, fc.RateLimit.Window); err != nil {
		return err
	}
	if fc.RateLimit.Disabled != nil {
		c.RateLimit.Disabled = *fc.RateLimit.Disabled
	}

	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	return nil
}

func overlayDuration(dst *time.Duration, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*dst = d
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
