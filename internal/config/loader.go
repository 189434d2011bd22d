package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/example/academy-scheduler/internal/logging"
	"github.com/example/academy-scheduler/internal/persistence/sqlite/migration"
)

// Config is the process configuration. Values come from defaults, an optional
// YAML file and ACADEMY_* environment variables, in that order.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Calendar CalendarConfig `yaml:"calendar"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Port            int           `yaml:"port"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SQLiteConfig configures the database file.
type SQLiteConfig struct {
	DSN         string        `yaml:"dsn"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// AuthConfig configures bearer-token verification.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// CalendarConfig tunes the calendar and task horizons.
type CalendarConfig struct {
	UpcomingDays           int `yaml:"upcoming_days"`
	MaterializeHorizonDays int `yaml:"materialize_horizon_days"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:            8080,
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		SQLite: SQLiteConfig{
			DSN:         "file:academy.db",
			BusyTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{TokenTTL: 24 * time.Hour},
		Log:  LogConfig{Level: "info", Format: "json"},
		Calendar: CalendarConfig{
			UpcomingDays:           7,
			MaterializeHorizonDays: 365,
		},
	}
}

// Load reads .env when present, then the YAML file at path (or ACADEMY_CONFIG),
// then environment overrides. Missing and malformed values are reported together.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := DefaultConfig()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("ACADEMY_CONFIG"))
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	invalid := applyEnv(&cfg)
	cfg.Normalize()
	invalid = append(invalid, cfg.validate()...)
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func applyEnv(cfg *Config) []string {
	invalid := make([]string, 0, 2)

	if value := env("ACADEMY_HTTP_PORT"); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "ACADEMY_HTTP_PORT")
		} else {
			cfg.HTTP.Port = port
		}
	}
	if value := env("ACADEMY_SQLITE_DSN"); value != "" {
		cfg.SQLite.DSN = value
	}
	if value := env("ACADEMY_JWT_SECRET"); value != "" {
		cfg.Auth.JWTSecret = value
	}
	if value := env("ACADEMY_LOG_LEVEL"); value != "" {
		cfg.Log.Level = value
	}
	if value := env("ACADEMY_LOG_FORMAT"); value != "" {
		cfg.Log.Format = value
	}
	if value := env("ACADEMY_LOG_FILE"); value != "" {
		cfg.Log.File = value
	}
	if value := env("ACADEMY_UPCOMING_DAYS"); value != "" {
		days, err := strconv.Atoi(value)
		if err != nil || days <= 0 {
			invalid = append(invalid, "ACADEMY_UPCOMING_DAYS")
		} else {
			cfg.Calendar.UpcomingDays = days
		}
	}
	if value := env("ACADEMY_MATERIALIZE_HORIZON_DAYS"); value != "" {
		days, err := strconv.Atoi(value)
		if err != nil || days <= 0 {
			invalid = append(invalid, "ACADEMY_MATERIALIZE_HORIZON_DAYS")
		} else {
			cfg.Calendar.MaterializeHorizonDays = days
		}
	}
	if value := env("ACADEMY_CORS_ORIGINS"); value != "" {
		var origins []string
		for _, origin := range strings.Split(value, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		cfg.HTTP.CORSOrigins = origins
	}
	return invalid
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// Normalize fills zero values left by a partial YAML file with defaults.
func (c *Config) Normalize() {
	defaults := DefaultConfig()
	if c.HTTP.Port == 0 {
		c.HTTP.Port = defaults.HTTP.Port
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = defaults.HTTP.CORSOrigins
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = defaults.HTTP.ShutdownTimeout
	}
	if strings.TrimSpace(c.SQLite.DSN) == "" {
		c.SQLite.DSN = defaults.SQLite.DSN
	}
	if c.SQLite.BusyTimeout <= 0 {
		c.SQLite.BusyTimeout = defaults.SQLite.BusyTimeout
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = defaults.Auth.TokenTTL
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Calendar.UpcomingDays <= 0 {
		c.Calendar.UpcomingDays = defaults.Calendar.UpcomingDays
	}
	if c.Calendar.MaterializeHorizonDays <= 0 {
		c.Calendar.MaterializeHorizonDays = defaults.Calendar.MaterializeHorizonDays
	}
}

func (c Config) validate() []string {
	var invalid []string
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		invalid = append(invalid, "http.port")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		invalid = append(invalid, "log.level")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		invalid = append(invalid, "log.format")
	}
	if err := c.SQLiteSettings().Validate(); err != nil {
		invalid = append(invalid, "sqlite.dsn")
	}
	return invalid
}

// RequireJWTSecret reports a missing signing secret. Only the API server and
// token minting need one.
func (c Config) RequireJWTSecret() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("missing required configuration: ACADEMY_JWT_SECRET")
	}
	return nil
}

// SQLiteSettings returns the connection settings for the configured database.
func (c Config) SQLiteSettings() migration.SQLiteConfig {
	settings := migration.DefaultSQLiteConfig(c.SQLite.DSN)
	if c.SQLite.BusyTimeout > 0 {
		settings.BusyTimeout = c.SQLite.BusyTimeout
	}
	return settings
}

// LoggingOptions returns the logger options for the configured output.
func (c Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}
