package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Klaviyo  KlaviyoConfig  `yaml:"klaviyo"`
	Sync     SyncConfig     `yaml:"sync"`
	Auth     AuthConfig     `yaml:"auth"`
	Kanban   KanbanConfig   `yaml:"kanban"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxOpenConns   int    `yaml:"max_open_conns"`
	MaxIdleConns   int    `yaml:"max_idle_conns"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RedisConfig holds the snapshot cache configuration
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	Enabled    bool   `yaml:"enabled"`
}

// TTL returns the snapshot cache TTL as a duration
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// KlaviyoConfig holds Klaviyo API configuration
type KlaviyoConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIRevision    string `yaml:"api_revision"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the configured timeout as a duration
func (c KlaviyoConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SyncConfig holds the record sync worker configuration
type SyncConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
	LookbackDays    int `yaml:"lookback_days"`
}

// Interval returns the sync interval as a duration
func (c SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// AuthConfig holds Google OAuth authentication configuration
type AuthConfig struct {
	Enabled            bool   `yaml:"enabled"`
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	AllowedDomain      string `yaml:"allowed_domain"`
	SessionSecret      string `yaml:"session_secret"`
	CookieName         string `yaml:"cookie_name"`
	CookieMaxAge       int    `yaml:"cookie_max_age"`
}

// KanbanConfig holds production-pipeline board configuration
type KanbanConfig struct {
	Enabled          bool `yaml:"enabled"`
	DueSoonHours     int  `yaml:"due_soon_hours"`
	MaxCardsPerLane  int  `yaml:"max_cards_per_lane"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.TimeoutSeconds == 0 {
		cfg.Database.TimeoutSeconds = 15
	}
	if cfg.Redis.TTLSeconds == 0 {
		cfg.Redis.TTLSeconds = 300
	}
	if cfg.Klaviyo.BaseURL == "" {
		cfg.Klaviyo.BaseURL = "https://a.klaviyo.com/api"
	}
	if cfg.Klaviyo.APIRevision == "" {
		cfg.Klaviyo.APIRevision = "2024-10-15"
	}
	if cfg.Klaviyo.TimeoutSeconds == 0 {
		cfg.Klaviyo.TimeoutSeconds = 30
	}
	if cfg.Sync.IntervalMinutes == 0 {
		cfg.Sync.IntervalMinutes = 30
	}
	if cfg.Sync.LookbackDays == 0 {
		cfg.Sync.LookbackDays = 365
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "pulse_session"
	}
	if cfg.Auth.CookieMaxAge == 0 {
		cfg.Auth.CookieMaxAge = 86400
	}
	if cfg.Kanban.DueSoonHours == 0 {
		cfg.Kanban.DueSoonHours = 24
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets
// can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if baseURL := os.Getenv("KLAVIYO_BASE_URL"); baseURL != "" {
		cfg.Klaviyo.BaseURL = baseURL
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Auth.GoogleClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Auth.GoogleClientSecret = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Auth.SessionSecret = v
	}
	if v := os.Getenv("AUTH_ALLOWED_DOMAIN"); v != "" {
		cfg.Auth.AllowedDomain = v
	}

	return cfg, nil
}
