package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/careplus/frontdesk/internal/model"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	ClinicAPI ClinicAPIConfig `mapstructure:"clinic_api"`
	Search    SearchConfig    `mapstructure:"search"`
	Session   SessionConfig   `mapstructure:"session"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Audit     AuditConfig     `mapstructure:"audit"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	MetricsPath    string        `mapstructure:"metrics_path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type ClinicAPIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Rate            float64       `mapstructure:"rate"`
	Burst           int           `mapstructure:"burst"`
	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

type SearchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SessionConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TTL       time.Duration `mapstructure:"ttl"`
	// RedisURL selects the redis session store; empty keeps sessions in memory.
	RedisURL string `mapstructure:"redis_url"`
	// EncryptionKey is a base64 AES key sealing records in redis.
	EncryptionKey string `mapstructure:"encryption_key"`
}

type WorkspaceConfig struct {
	IdleTTL         time.Duration `mapstructure:"idle_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type AdminConfig struct {
	Identifier   string `mapstructure:"identifier"`
	PasswordHash string `mapstructure:"password_hash"`
	Name         string `mapstructure:"name"`
}

// DatabaseConfig is the audit store. An empty host disables the audit trail.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

type AuditConfig struct {
	RetentionDays   int           `mapstructure:"retention_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	// HealthPort serves the worker's health and metrics endpoints.
	HealthPort int `mapstructure:"health_port"`
}

// SMTPConfig sends booking confirmations. An empty host disables mail.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

type CatalogConfig struct {
	Specialists []model.Specialist `mapstructure:"specialists"`
	TimeOptions []string           `mapstructure:"time_options"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Secrets are read from FRONTDESK_* variables and win over the file.
type Secrets struct {
	JWTSecret         string `envconfig:"JWT_SECRET"`
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`
	DatabasePassword  string `envconfig:"DB_PASSWORD"`
	SMTPPassword      string `envconfig:"SMTP_PASSWORD"`
	RedisURL          string `envconfig:"REDIS_URL"`
	SessionKey        string `envconfig:"SESSION_KEY"`
	ClinicAPIURL      string `envconfig:"CLINIC_API_URL"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.max_body_bytes", 64<<10)
	v.SetDefault("server.metrics_path", "/metrics")

	v.SetDefault("log.level", "info")

	v.SetDefault("clinic_api.base_url", "http://localhost:8081")
	v.SetDefault("clinic_api.timeout", 10*time.Second)
	v.SetDefault("clinic_api.rate", 50)
	v.SetDefault("clinic_api.burst", 100)
	v.SetDefault("clinic_api.breaker_failures", 5)
	v.SetDefault("clinic_api.breaker_timeout", 30*time.Second)

	v.SetDefault("search.debounce", 300*time.Millisecond)
	v.SetDefault("search.timeout", 10*time.Second)

	v.SetDefault("session.issuer", "careplus-frontdesk")
	v.SetDefault("session.ttl", 8*time.Hour)

	v.SetDefault("workspace.idle_ttl", 30*time.Minute)
	v.SetDefault("workspace.cleanup_interval", 5*time.Minute)

	v.SetDefault("admin.name", "Admin")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("audit.retention_days", 90)
	v.SetDefault("audit.cleanup_interval", 24*time.Hour)
	v.SetDefault("audit.health_port", 8082)

	v.SetDefault("smtp.port", 587)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)
}

// LoadConfig reads config.yml from the usual locations, or the file named
// by CONFIG_FILE, then applies environment overrides.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app")
		v.AddConfigPath("/app/config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var secrets Secrets
	if err := envconfig.Process("frontdesk", &secrets); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	config.apply(secrets)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) apply(s Secrets) {
	override(&c.Session.JWTSecret, s.JWTSecret)
	override(&c.Admin.PasswordHash, s.AdminPasswordHash)
	override(&c.Database.Password, s.DatabasePassword)
	override(&c.SMTP.Password, s.SMTPPassword)
	override(&c.Session.RedisURL, s.RedisURL)
	override(&c.Session.EncryptionKey, s.SessionKey)
	override(&c.ClinicAPI.BaseURL, s.ClinicAPIURL)
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.ClinicAPI.BaseURL) == "" {
		return fmt.Errorf("clinic_api.base_url is required")
	}
	if len(c.Session.JWTSecret) < 32 {
		return fmt.Errorf("session.jwt_secret must be at least 32 characters")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if len(c.Catalog.Specialists) == 0 {
		return fmt.Errorf("catalog.specialists must not be empty")
	}
	if c.Admin.PasswordHash != "" && c.Admin.Identifier == "" {
		return fmt.Errorf("admin.identifier is required when an admin password is set")
	}
	return nil
}
