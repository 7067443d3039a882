// Package config provides Viper-based hierarchical configuration management:
// defaults, then an optional YAML file, then FINBOT_-prefixed environment
// variables, with secrets always bound to their conventional unprefixed names.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"finbot/internal/logging"
)

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Server struct {
		Addr string `mapstructure:"addr" yaml:"addr"`
	} `mapstructure:"server" yaml:"server"`

	Database struct {
		URL string `mapstructure:"url" yaml:"-"`
	} `mapstructure:"database" yaml:"database"`

	Telegram struct {
		Token string `mapstructure:"token" yaml:"-"`
	} `mapstructure:"telegram" yaml:"telegram"`

	Parser struct {
		APIKey         string `mapstructure:"api_key" yaml:"-"`
		Model          string `mapstructure:"model" yaml:"model"`
		BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	} `mapstructure:"parser" yaml:"parser"`

	OCR struct {
		APIKey string `mapstructure:"api_key" yaml:"-"`
	} `mapstructure:"ocr" yaml:"ocr"`

	Assistant struct {
		APIKey string `mapstructure:"api_key" yaml:"-"`
		Model  string `mapstructure:"model" yaml:"model"`
	} `mapstructure:"assistant" yaml:"assistant"`

	Cron struct {
		Secret string `mapstructure:"secret" yaml:"-"`
	} `mapstructure:"cron" yaml:"cron"`

	Categories struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"categories" yaml:"categories"`
}

// ParserTimeout returns the semantic parser timeout as a duration.
func (c *Config) ParserTimeout() time.Duration {
	return time.Duration(c.Parser.TimeoutSeconds) * time.Second
}

// Load initializes configuration with hierarchical loading. A .env file in
// the working directory is applied first so local development matches the
// deployed environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.finbot")
	v.AddConfigPath(".finbot")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FINBOT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// Secrets come from their conventional environment names, unprefixed.
	secretBindings := map[string]string{
		"database.url":      "DATABASE_URL",
		"telegram.token":    "TELEGRAM_TOKEN",
		"parser.api_key":    "DEEPSEEK_API_KEY",
		"ocr.api_key":       "OCR_API_KEY",
		"assistant.api_key": "GEMINI_API_KEY",
		"cron.secret":       "CRON_SECRET",
	}
	for key, env := range secretBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("parser.model", "deepseek-chat")
	v.SetDefault("parser.base_url", "")
	v.SetDefault("parser.timeout_seconds", 30)

	v.SetDefault("assistant.model", "gemini-1.5-flash")

	v.SetDefault("categories.file", "")
}

func validate(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}
	if config.Parser.TimeoutSeconds < 1 || config.Parser.TimeoutSeconds > 300 {
		return fmt.Errorf("parser.timeout_seconds must be between 1 and 300, got: %d", config.Parser.TimeoutSeconds)
	}
	return nil
}

// ConfigureLogging builds the process logger from the configuration and
// installs it as the package default.
func ConfigureLogging(config *Config) logging.Logger {
	logger := logging.NewLogrusAdapter(config.Log.Level, config.Log.Format)
	logging.SetDefaultLogger(logger)
	return logger
}
