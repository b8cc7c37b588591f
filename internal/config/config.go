package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	API     API     `mapstructure:"api"`
	Session Session `mapstructure:"session"`
	Cache   Cache   `mapstructure:"cache"`
	Logger  Logger  `mapstructure:"logger"`
}

// API holds the configuration for the remote journal API.
type API struct {
	BaseURL        string  `mapstructure:"base_url"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Session holds the configuration for the persisted session record.
type Session struct {
	Path string `mapstructure:"path"`
}

// Cache holds the configuration for the local snapshot cache.
type Cache struct {
	DSN     string `mapstructure:"dsn"`
	Enabled bool   `mapstructure:"enabled"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults apply.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.SetEnvPrefix("journal")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ".tradejournal")

	// Set default values
	viper.SetDefault("api.base_url", "http://localhost:8000")
	viper.SetDefault("api.timeout_seconds", 15)
	viper.SetDefault("api.rate_limit", 10) // requests per second
	viper.SetDefault("api.rate_limit_burst", 5)
	viper.SetDefault("session.path", filepath.Join(stateDir, "session.json"))
	viper.SetDefault("cache.dsn", filepath.Join(stateDir, "cache.db"))
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
