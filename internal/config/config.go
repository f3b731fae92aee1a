package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultUserAgent is the default User-Agent string sent when fetching pages.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:147.0) Gecko/20100101 Firefox/147.0"

type Config struct {
	LogLevel string `mapstructure:"log_level"`
	Store    struct {
		Provider  string `mapstructure:"provider"`   // "redis" or "memory"
		KeyPrefix string `mapstructure:"key_prefix"` // empty means the whole logical DB belongs to the cache
		Timeout   string `mapstructure:"timeout"`    // Go duration string, per store operation
		Redis     struct {
			Address  string `mapstructure:"address"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
		Memory struct {
			Size int `mapstructure:"size"` // Key limit of the in-process store, 0 for unbounded
		} `mapstructure:"memory"`
	} `mapstructure:"store"`
	PageCache struct {
		TTL          string `mapstructure:"ttl"`
		SingleFlight bool   `mapstructure:"single_flight"`
	} `mapstructure:"page_cache"`
	Fetch struct {
		Timeout    string `mapstructure:"timeout"`
		Proxy      string `mapstructure:"proxy"`
		UserAgent  string `mapstructure:"user_agent"`
		MaxRetries int    `mapstructure:"max_retries"`
	} `mapstructure:"fetch"`
	Server struct {
		Port    int    `mapstructure:"port"`
		Address string `mapstructure:"address"`
	} `mapstructure:"server"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Sentry struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"sentry"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: false,
	}).With().Timestamp().Logger()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	level := zerolog.InfoLevel
	if config.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", config.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	zerolog.SetGlobalLevel(level)
	logger = logger.Level(level)

	logger.Debug().Str("level", level.String()).Msg("Logging configured")
	globalConfig = config
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variable support
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = v.BindEnv("log_level", "LOG_LEVEL")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.Fetch.UserAgent == "" {
		config.Fetch.UserAgent = DefaultUserAgent
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("store.provider", "redis")
	v.SetDefault("store.key_prefix", "")
	v.SetDefault("store.timeout", "2s")
	v.SetDefault("store.redis.address", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.memory.size", 0)
	v.SetDefault("page_cache.ttl", "10s")
	v.SetDefault("page_cache.single_flight", false)
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.proxy", "")
	v.SetDefault("fetch.max_retries", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.address", "localhost")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("sentry.dsn", "")
}

// ParseDuration parses a Go duration string, logging and returning fallback when it is empty or invalid.
func ParseDuration(name, value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Warn().Err(err).Str(name, value).Dur("default", fallback).Msg("Invalid duration, using default")
		return fallback
	}
	return d
}

func GetConfig() *Config {
	return globalConfig
}

func GetLogger() zerolog.Logger {
	return logger
}
