package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	QR       QRConfig       `yaml:"qr"`
	Reaper   ReaperConfig   `yaml:"reaper"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig enables the Redis replay pre-filter. When disabled the
// relational used-token table serves both the screen and the commit.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AMQPConfig enables publishing scan events to RabbitMQ.
type AMQPConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Queue   string `yaml:"queue"`
}

// QRConfig holds the token and scan pipeline settings.
type QRConfig struct {
	// Timezone resolves seed day boundaries, e.g. "Asia/Seoul".
	Timezone string `yaml:"timezone"`
	// WindowMinutes is how many past rotations a scan may still match.
	WindowMinutes int `yaml:"window_minutes"`
	// DefaultRoundingMinutes applies when a seed is created without an
	// explicit interval.
	DefaultRoundingMinutes int `yaml:"default_rounding_minutes"`
	// CooldownSeconds throttles repeat scans per worker and action after a
	// success. Zero disables the throttle.
	CooldownSeconds int `yaml:"cooldown_seconds"`
}

// ReaperConfig controls the expired-entry cleanup loop.
type ReaperConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
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

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 10
	}

	if cfg.QR.Timezone == "" {
		log.Printf("qr.timezone is not set; defaulting to UTC")
		cfg.QR.Timezone = "UTC"
	}
	if cfg.QR.WindowMinutes <= 0 {
		cfg.QR.WindowMinutes = 2
	}
	if cfg.QR.DefaultRoundingMinutes <= 0 {
		cfg.QR.DefaultRoundingMinutes = 30
	}

	if cfg.Reaper.IntervalSeconds <= 0 {
		cfg.Reaper.IntervalSeconds = 300
	}
	cfg.Reaper.Interval = time.Duration(cfg.Reaper.IntervalSeconds) * time.Second

	return &cfg, nil
}
