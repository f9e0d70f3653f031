package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subject         string
	TTL             int
	WorkerPoolSize  int
	QueueSize       int
}

type IngestConfig struct {
	RateLimitPerSec float64
	RateLimitBurst  int
}

type CacheConfig struct {
	TTL time.Duration
}

type RetentionConfig struct {
	Enabled  bool
	Interval time.Duration
	Days     int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Push        PushConfig
	Ingest      IngestConfig
	Cache       CacheConfig
	Retention   RetentionConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Push: PushConfig{
			VAPIDPublicKey:  v.GetString("VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: v.GetString("VAPID_PRIVATE_KEY"),
			Subject:         v.GetString("VAPID_SUBJECT"),
			TTL:             v.GetInt("PUSH_TTL"),
			WorkerPoolSize:  v.GetInt("PUSH_WORKER_POOL_SIZE"),
			QueueSize:       v.GetInt("PUSH_QUEUE_SIZE"),
		},
		Ingest: IngestConfig{
			RateLimitPerSec: v.GetFloat64("INGEST_RATE_LIMIT_PER_SEC"),
			RateLimitBurst:  v.GetInt("INGEST_RATE_LIMIT_BURST"),
		},
		Cache: CacheConfig{
			TTL: v.GetDuration("CACHE_TTL"),
		},
		Retention: RetentionConfig{
			Enabled:  v.GetBool("RETENTION_ENABLED"),
			Interval: v.GetDuration("RETENTION_INTERVAL"),
			Days:     v.GetInt("RETENTION_DAYS"),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.Push.WorkerPoolSize <= 0 {
		cfg.Push.WorkerPoolSize = 4
	}
	if cfg.Push.QueueSize <= 0 {
		cfg.Push.QueueSize = 256
	}
	if cfg.Ingest.RateLimitPerSec <= 0 {
		cfg.Ingest.RateLimitPerSec = 20
	}
	if cfg.Ingest.RateLimitBurst <= 0 {
		cfg.Ingest.RateLimitBurst = 40
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = 5 * time.Second
	}
	if cfg.Retention.Interval <= 0 {
		cfg.Retention.Interval = time.Hour
	}
	if cfg.Retention.Days <= 0 {
		cfg.Retention.Days = 7
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	return nil
}
