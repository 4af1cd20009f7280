package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Feed       FeedConfig       `yaml:"feed"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Auth       AuthConfig       `yaml:"auth"`
	Redis      RedisConfig      `yaml:"redis"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogQueries             bool   `yaml:"log_queries"`
}

// FeedConfig configures the upstream station feed importer.
type FeedConfig struct {
	Enabled         bool              `yaml:"enabled"`
	URL             string            `yaml:"url"`
	Headers         map[string]string `yaml:"headers"`
	PageSize        int               `yaml:"page_size"`
	IntervalSeconds int               `yaml:"interval_seconds"`
	Interval        time.Duration     `yaml:"-"`
	TimeoutSeconds  int               `yaml:"timeout_seconds"`
	HTTPProxy       string            `yaml:"http_proxy"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// AuthConfig holds the shared secret used to verify bearer tokens.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// RedisConfig configures the active check-in cache. Empty Addr disables it.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the configuration from the given path, applies defaults and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"DATABASE_DSN":      &c.Database.DSN,
		"AUTH_JWT_SECRET":   &c.Auth.JWTSecret,
		"REDIS_ADDR":        &c.Redis.Addr,
		"REDIS_PASSWORD":    &c.Redis.Password,
		"VAPID_PUBLIC_KEY":  &c.Push.PublicKey,
		"VAPID_PRIVATE_KEY": &c.Push.PrivateKey,
		"LOG_LEVEL":         &c.Log.Level,
	}
	for env, dst := range overrides {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 5
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 10
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetimeMinutes <= 0 {
		c.Database.ConnMaxLifetimeMinutes = 30
	}

	if c.Feed.IntervalSeconds <= 0 {
		c.Feed.IntervalSeconds = 300
	}
	c.Feed.Interval = time.Duration(c.Feed.IntervalSeconds) * time.Second
	if c.Feed.PageSize <= 0 {
		c.Feed.PageSize = 100
	}
	if c.Feed.TimeoutSeconds <= 0 {
		c.Feed.TimeoutSeconds = 30
	}

	if c.Push.TTL <= 0 {
		c.Push.TTL = 3600
	}
	if c.WorkerPool.Size <= 0 {
		c.WorkerPool.Size = 1
	}
	if c.WorkerPool.QueueSize <= 0 {
		c.WorkerPool.QueueSize = 100
	}

	if c.Redis.TTLMinutes <= 0 {
		c.Redis.TTLMinutes = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Feed.Enabled && c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required when the feed is enabled")
	}
	return nil
}

// RedisTTL is the lifetime of cached active check-ins.
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Redis.TTLMinutes) * time.Minute
}
