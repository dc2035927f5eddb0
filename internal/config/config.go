// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Places Places `yaml:"places" mapstructure:"places"`
	OCM    OCM    `yaml:"ocm" mapstructure:"ocm"`
	Routes Routes `yaml:"routes" mapstructure:"routes"`
	Search Search `yaml:"search" mapstructure:"search"`
	Store  Store  `yaml:"store" mapstructure:"store"`
	Server Server `yaml:"server" mapstructure:"server"`
	Log    Log    `yaml:"log" mapstructure:"log"`
}

// Places holds the Places API key.
type Places struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// OCM holds Open Charge Map API settings.
type OCM struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	MaxResults    int     `yaml:"max_results" mapstructure:"max_results"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	CacheTTLHours int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// Routes holds the distance-matrix API key.
type Routes struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// Search configures the search pipeline defaults.
type Search struct {
	WalkingTimeMinutes float64 `yaml:"walking_time_minutes" mapstructure:"walking_time_minutes"`
	RadiusMiles        float64 `yaml:"radius_miles" mapstructure:"radius_miles"`
	FetchConcurrency   int     `yaml:"fetch_concurrency" mapstructure:"fetch_concurrency"`
}

// Store configures the persistence backend.
type Store struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// Server configures the HTTP API.
type Server struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CHARGESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ocm.base_url", "https://api.openchargemap.io/v3")
	v.SetDefault("ocm.max_results", 25)
	v.SetDefault("ocm.rate_per_second", 2)
	v.SetDefault("ocm.rate_burst", 4)
	v.SetDefault("ocm.cache_ttl_hours", 6)
	v.SetDefault("search.walking_time_minutes", 10)
	v.SetDefault("search.radius_miles", 5)
	v.SetDefault("search.fetch_concurrency", 5)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "charge-scout.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg Log) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
