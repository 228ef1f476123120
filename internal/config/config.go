// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	Locale         string `mapstructure:"APP_LOCALE"`
	Timezone       string `mapstructure:"APP_TIMEZONE"`
	DBDriver       string `mapstructure:"DB_DRIVER"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	SQLitePath     string `mapstructure:"SQLITE_PATH"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	StorageDir         string `mapstructure:"STORAGE_DIR"`
	StorageURL         string `mapstructure:"STORAGE_URL"`
	ThumbnailDirectory string `mapstructure:"THUMBNAIL_DIRECTORY"`
	ThumbnailPrefix    string `mapstructure:"THUMBNAIL_PREFIX"`
	ThumbnailMaxSizeKB int    `mapstructure:"THUMBNAIL_MAX_SIZE_KB"`
	ThumbnailMaxPixels int64  `mapstructure:"THUMBNAIL_MAX_PIXELS"`
	WebPQuality        int    `mapstructure:"WEBP_QUALITY"`

	TracingEnabled  bool   `mapstructure:"TRACING_ENABLED"`
	TracingExporter string `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string `mapstructure:"OTLP_ENDPOINT"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_LOCALE", "pl")
	viper.SetDefault("APP_TIMEZONE", "UTC")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "blog")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SQLITE_PATH", "blog.db")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("STORAGE_DIR", "storage/app/public")
	viper.SetDefault("STORAGE_URL", "/storage")
	viper.SetDefault("THUMBNAIL_DIRECTORY", "blog-thumbnails")
	viper.SetDefault("THUMBNAIL_PREFIX", "podaj-lapsie-")
	viper.SetDefault("THUMBNAIL_MAX_SIZE_KB", 4096)
	viper.SetDefault("THUMBNAIL_MAX_PIXELS", 40_000_000)
	viper.SetDefault("WEBP_QUALITY", 80)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) normalize() {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.Locale = strings.ToLower(strings.TrimSpace(c.Locale))
	c.ThumbnailDirectory = strings.Trim(strings.TrimSpace(c.ThumbnailDirectory), "/")
	c.StorageURL = strings.TrimRight(strings.TrimSpace(c.StorageURL), "/")
}

// IsProduction reports whether the config describes a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Location resolves the configured display timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ThumbnailMaxBytes converts the kilobyte upload limit to bytes.
func (c *Config) ThumbnailMaxBytes() int64 {
	return int64(c.ThumbnailMaxSizeKB) * 1024
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be 'postgres' or 'sqlite', got %q", c.DBDriver)
	}
	if c.DBDriver == "sqlite" && c.SQLitePath == "" {
		return errors.New("SQLITE_PATH is required when DB_DRIVER is sqlite")
	}
	if c.StorageDir == "" {
		return errors.New("STORAGE_DIR is required")
	}
	if c.ThumbnailDirectory == "" {
		return errors.New("THUMBNAIL_DIRECTORY is required")
	}
	if c.ThumbnailMaxSizeKB <= 0 {
		return errors.New("THUMBNAIL_MAX_SIZE_KB must be positive")
	}
	if c.ThumbnailMaxPixels < 0 {
		return errors.New("THUMBNAIL_MAX_PIXELS must not be negative")
	}
	if c.WebPQuality < 1 || c.WebPQuality > 100 {
		return errors.New("WEBP_QUALITY must be between 1 and 100")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE %q is not a valid IANA zone: %w", c.Timezone, err)
	}

	if c.IsProduction() {
		if c.DBDriver == "postgres" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBDriver == "postgres" && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	}

	return nil
}
