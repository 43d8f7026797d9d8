package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting the service reads. Values come from a
// config file when one is present, with environment variables taking
// precedence.
type Config struct {
	ServerPort   string `mapstructure:"SERVER_PORT"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`

	// GoogleMapsAPIKey enables real directions lookups. When empty the
	// service falls back to straight-line estimates.
	GoogleMapsAPIKey string `mapstructure:"GOOGLE_MAPS_API_KEY"`

	// SegmentCallTimeout bounds one directions call made by the segment
	// calculation queue.
	SegmentCallTimeout time.Duration `mapstructure:"SEGMENT_CALL_TIMEOUT"`

	AWSRegion string `mapstructure:"AWS_REGION"`
	EmailFrom string `mapstructure:"EMAIL_FROM"`
}

// LoadConfig reads configuration from app.env in the given directory and
// from the process environment. A missing config file is not an error;
// missing required values are.
func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("CLIENT_ORIGIN", "http://localhost:5173")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("SEGMENT_CALL_TIMEOUT", "10s")
	viper.SetDefault("AWS_REGION", "us-west-2")

	// Unmarshal only sees keys viper knows about, so register the ones
	// without defaults explicitly.
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("GOOGLE_MAPS_API_KEY", "")
	viper.SetDefault("EMAIL_FROM", "")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("config: DATABASE_URL is required")
	}
	return &cfg, nil
}
