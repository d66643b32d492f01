package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Push        PushConfig        `yaml:"push"`
	WorkerPool  WorkerPoolConfig  `yaml:"worker_pool"`
	Feed        FeedConfig        `yaml:"feed"`
	Geolocation GeolocationConfig `yaml:"geolocation"`
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
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig holds the VAPID keys for web push notifications. The private
// key never leaves the backend; clients only ever see the public key.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the push delivery workers.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// FeedConfig tunes the notification feed refresh behaviour.
type FeedConfig struct {
	RecentLimit          int           `yaml:"recent_limit"`
	ForegroundDebounceMS int           `yaml:"foreground_debounce_ms"`
	ForegroundDebounce   time.Duration `yaml:"-"`
}

// GeolocationConfig tunes the best-effort location capture.
type GeolocationConfig struct {
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	MaxAgeMinutes  int           `yaml:"max_age_minutes"`
	Timeout        time.Duration `yaml:"-"`
	MaxAge         time.Duration `yaml:"-"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Feed.RecentLimit <= 0 {
		cfg.Feed.RecentLimit = 10
	}
	if cfg.Feed.ForegroundDebounceMS <= 0 {
		cfg.Feed.ForegroundDebounceMS = 1000
	}
	cfg.Feed.ForegroundDebounce = time.Duration(cfg.Feed.ForegroundDebounceMS) * time.Millisecond

	if cfg.Geolocation.TimeoutSeconds <= 0 {
		cfg.Geolocation.TimeoutSeconds = 10
	}
	if cfg.Geolocation.MaxAgeMinutes <= 0 {
		cfg.Geolocation.MaxAgeMinutes = 5
	}
	cfg.Geolocation.Timeout = time.Duration(cfg.Geolocation.TimeoutSeconds) * time.Second
	cfg.Geolocation.MaxAge = time.Duration(cfg.Geolocation.MaxAgeMinutes) * time.Minute

	return &cfg, nil
}
