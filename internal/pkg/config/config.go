package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	Maps      MapsConfig      `mapstructure:"maps"`
	Media     MediaConfig     `mapstructure:"media"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	CORSOrigins  string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MapsConfig configures the client map library and bootstrapper.
type MapsConfig struct {
	APIKey             string `mapstructure:"api_key"`
	LoaderURL          string `mapstructure:"loader_url"`
	AssetURL           string `mapstructure:"asset_url"`
	DefaultAspectRatio string `mapstructure:"default_aspect_ratio"`
	PollIntervalMS     int    `mapstructure:"poll_interval_ms"`
	MaxPollAttempts    int    `mapstructure:"max_poll_attempts"`
}

// PollInterval returns the library readiness poll interval.
func (m MapsConfig) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalMS) * time.Millisecond
}

type MediaConfig struct {
	Rendition      string `mapstructure:"rendition"`
	CacheTTLSecond int    `mapstructure:"cache_ttl_seconds"`
}

// StorageConfig points at the S3-compatible bucket holding media objects.
// An empty endpoint disables object-key renditions.
type StorageConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Bucket        string `mapstructure:"bucket"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	PresignTTLMin int    `mapstructure:"presign_ttl_minutes"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// PresignTTL returns how long presigned URLs stay valid.
func (s StorageConfig) PresignTTL() time.Duration {
	return time.Duration(s.PresignTTLMin) * time.Minute
}

// Load reads configuration from .env, an optional file and environment variables.
func Load(service string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not parse .env", "error", err)
	}

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "multimap")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "multimap")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.loader_url", "https://maps.googleapis.com/maps/api/js")
	v.SetDefault("maps.asset_url", "/assets/multimap.js")
	v.SetDefault("maps.default_aspect_ratio", "16:9")
	v.SetDefault("maps.poll_interval_ms", 100)
	v.SetDefault("maps.max_poll_attempts", 0)
	v.SetDefault("media.rendition", "medium")
	v.SetDefault("media.cache_ttl_seconds", 600)
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.bucket", "media")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.presign_ttl_minutes", 60)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MULTIMAP_MAPS_API_KEY → maps.api_key
	v.SetEnvPrefix("MULTIMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Maps.LoaderURL == "" {
		errs = append(errs, "maps.loader_url is required")
	}
	if c.Maps.PollIntervalMS <= 0 {
		errs = append(errs, "maps.poll_interval_ms must be positive")
	}
	if c.Maps.MaxPollAttempts < 0 {
		errs = append(errs, "maps.max_poll_attempts must not be negative")
	}
	if c.Media.Rendition == "" {
		errs = append(errs, "media.rendition is required")
	}
	if c.Storage.Endpoint != "" && c.Storage.Bucket == "" {
		errs = append(errs, "storage.bucket is required when storage.endpoint is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
