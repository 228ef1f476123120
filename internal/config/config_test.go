package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:               "8080",
		Env:                "development",
		Timezone:           "UTC",
		DBDriver:           "postgres",
		DBPassword:         "secure-password",
		DBSSLMode:          "require",
		StorageDir:         "storage",
		ThumbnailDirectory: "blog-thumbnails",
		ThumbnailMaxSizeKB: 4096,
		WebPQuality:        80,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateThumbnailSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max size", func(c *Config) { c.ThumbnailMaxSizeKB = 0 }},
		{"webp quality too high", func(c *Config) { c.WebPQuality = 101 }},
		{"webp quality zero", func(c *Config) { c.WebPQuality = 0 }},
		{"missing directory", func(c *Config) { c.ThumbnailDirectory = "" }},
		{"negative max pixels", func(c *Config) { c.ThumbnailMaxPixels = -1 }},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_ThumbnailMaxBytes(t *testing.T) {
	c := validConfig()
	assert.Equal(t, int64(4096*1024), c.ThumbnailMaxBytes())
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_DRIVER")
	defer viper.Reset()

	os.Setenv("APP_ENV", "test")
	os.Setenv("DB_DRIVER", "  SQLite ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "blog-thumbnails", c.ThumbnailDirectory)
	assert.Equal(t, "podaj-lapsie-", c.ThumbnailPrefix)
	assert.Equal(t, 4096, c.ThumbnailMaxSizeKB)
	assert.Equal(t, "pl", c.Locale)
}
