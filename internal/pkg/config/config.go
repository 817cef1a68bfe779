package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/samirrijal/elevprofile/internal/pkg/geospatial"
	"github.com/samirrijal/elevprofile/internal/pkg/logging"
	"github.com/samirrijal/elevprofile/internal/pkg/tiles"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Profile   ProfileConfig   `mapstructure:"profile"`
	Tiles     TilesConfig     `mapstructure:"tiles"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
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

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// ProfileConfig holds the pipeline defaults. Requests may override Step and Zoom.
type ProfileConfig struct {
	SourceCRS string  `mapstructure:"source_crs"`
	PlanarCRS string  `mapstructure:"planar_crs"`
	Zoom      int     `mapstructure:"zoom"`
	Step      float64 `mapstructure:"step"`
	Workers   int     `mapstructure:"workers"`
	FailFast  bool    `mapstructure:"fail_fast"`
}

// TilesConfig selects where terrarium tiles are read from.
type TilesConfig struct {
	Source         string  `mapstructure:"source"` // http or gcs
	URLTemplate    string  `mapstructure:"url_template"`
	Bucket         string  `mapstructure:"bucket"`
	ObjectTemplate string  `mapstructure:"object_template"`
	RateLimit      float64 `mapstructure:"rate_limit"` // requests per second, 0 disables
	Burst          int     `mapstructure:"burst"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	CacheEnabled   bool    `mapstructure:"cache_enabled"`
	CacheTTL       int     `mapstructure:"cache_ttl"`
}

type RetryConfig struct {
	MaxAttempts       int `mapstructure:"max_attempts"`
	InitialIntervalMS int `mapstructure:"initial_interval_ms"`
	MaxIntervalMS     int `mapstructure:"max_interval_ms"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "elevprofile")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "elevprofile")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "elevation-profiles")
	v.SetDefault("profile.source_crs", geospatial.Geographic)
	v.SetDefault("profile.planar_crs", "EPSG:3786")
	v.SetDefault("profile.zoom", 9)
	v.SetDefault("profile.step", 50.0)
	v.SetDefault("profile.workers", 8)
	v.SetDefault("profile.fail_fast", false)
	v.SetDefault("tiles.source", "http")
	v.SetDefault("tiles.url_template", "http://localhost:8090/elevation-tiles-prod/terrarium/{z}/{x}/{y}.png")
	v.SetDefault("tiles.bucket", "")
	v.SetDefault("tiles.object_template", "terrarium/{z}/{x}/{y}.png")
	v.SetDefault("tiles.rate_limit", 20.0)
	v.SetDefault("tiles.burst", 5)
	v.SetDefault("tiles.timeout_seconds", 30)
	v.SetDefault("tiles.cache_enabled", false)
	v.SetDefault("tiles.cache_ttl", 86400)
	v.SetDefault("retry.max_attempts", 4)
	v.SetDefault("retry.initial_interval_ms", 250)
	v.SetDefault("retry.max_interval_ms", 5000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: ELEVPROFILE_TILES_SOURCE → tiles.source
	v.SetEnvPrefix("ELEVPROFILE")
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
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}

	p := c.Profile
	if !strings.EqualFold(p.SourceCRS, geospatial.Geographic) {
		errs = append(errs, fmt.Sprintf("profile.source_crs must be %s, got %q", geospatial.Geographic, p.SourceCRS))
	}
	if !slices.Contains(geospatial.SupportedPlanarCRS(), strings.ToUpper(p.PlanarCRS)) {
		errs = append(errs, fmt.Sprintf("profile.planar_crs must be one of %v, got %q", geospatial.SupportedPlanarCRS(), p.PlanarCRS))
	}
	if p.Step <= 0 {
		errs = append(errs, fmt.Sprintf("profile.step must be positive, got %v", p.Step))
	}
	if p.Zoom < 0 || p.Zoom > tiles.MaxZoom {
		errs = append(errs, fmt.Sprintf("profile.zoom must be 0-%d, got %d", tiles.MaxZoom, p.Zoom))
	}
	if p.Workers < 1 {
		errs = append(errs, "profile.workers must be at least 1")
	}

	t := c.Tiles
	switch t.Source {
	case "http":
		if !tiles.ValidTemplate(t.URLTemplate) {
			errs = append(errs, "tiles.url_template must contain {z}, {x} and {y}")
		}
	case "gcs":
		if t.Bucket == "" {
			errs = append(errs, "tiles.bucket is required when tiles.source is gcs")
		}
		if !tiles.ValidTemplate(t.ObjectTemplate) {
			errs = append(errs, "tiles.object_template must contain {z}, {x} and {y}")
		}
	default:
		errs = append(errs, fmt.Sprintf("tiles.source must be http or gcs, got %q", t.Source))
	}
	if t.RateLimit < 0 {
		errs = append(errs, "tiles.rate_limit must not be negative")
	}
	if t.TimeoutSeconds <= 0 {
		errs = append(errs, "tiles.timeout_seconds must be positive")
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, "retry.max_attempts must be at least 1")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, "log.level: "+err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
