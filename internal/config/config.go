package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Poll     PollConfig     `mapstructure:"poll"`
	Store    StoreConfig    `mapstructure:"store"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	NATS     NATSConfig     `mapstructure:"nats"`
}

type AppConfig struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

type BackendConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
	APIToken  string `mapstructure:"api_token"`
}

func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

type PollConfig struct {
	IntervalMs int `mapstructure:"interval_ms"`
}

func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalMs) * time.Millisecond
}

// StoreConfig escolhe onde os rascunhos ficam
type StoreConfig struct {
	Driver        string `mapstructure:"driver"` // memory | redis | postgres
	DraftTTLHours int    `mapstructure:"draft_ttl_hours"`
}

func (s StoreConfig) DraftTTL() time.Duration {
	return time.Duration(s.DraftTTLHours) * time.Hour
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	MaxReconnects int    `mapstructure:"max_reconnects"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// Enabled: sem URL a api roda sem publicar eventos
func (n NATSConfig) Enabled() bool {
	return n.URL != ""
}

var keys = []string{
	"app.port", "app.log_level",
	"backend.base_url", "backend.timeout_ms", "backend.api_token",
	"poll.interval_ms",
	"store.driver", "store.draft_ttl_hours",
	"redis.addr", "redis.password", "redis.db", "redis.pool_size",
	"postgres.url",
	"nats.url", "nats.max_reconnects", "nats.subject_prefix",
}

// Load lê defaults e variáveis ATLAS_* (ex.: ATLAS_BACKEND_BASE_URL)
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("app.port", "8080")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("backend.base_url", "http://localhost:3000/api")
	v.SetDefault("backend.timeout_ms", 10000)
	v.SetDefault("backend.api_token", "")

	v.SetDefault("poll.interval_ms", 2000)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.draft_ttl_hours", 72)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("postgres.url", "postgres://localhost:5432/atlas?sslmode=disable")

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.subject_prefix", "atlas")

	v.SetEnvPrefix("ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("invalid store.driver %q (memory, redis or postgres)", c.Store.Driver)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Poll.IntervalMs <= 0 {
		return fmt.Errorf("poll.interval_ms must be positive")
	}
	return nil
}
