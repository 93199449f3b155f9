package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	Addr     string `mapstructure:"addr"`

	StorageType string `mapstructure:"storage_type"`
	BBoltPath   string `mapstructure:"bbolt_path"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`

	AuthMode  string `mapstructure:"auth_mode"`
	JWTSecret string `mapstructure:"jwt_secret"`

	WikipediaAPIURL   string        `mapstructure:"wikipedia_api_url"`
	SearchTimeoutSecs int64         `mapstructure:"search_timeout_seconds"`
	SearchTimeout     time.Duration `mapstructure:"-"`

	ClassifierType     string        `mapstructure:"classifier_type"`
	OpenAIAPIKey       string        `mapstructure:"openai_api_key"`
	OpenAIAPIURL       string        `mapstructure:"openai_api_url"`
	OpenAIModel        string        `mapstructure:"openai_model"`
	ClassifierTimeoutS int64         `mapstructure:"classifier_timeout_seconds"`
	ClassifierTimeout  time.Duration `mapstructure:"-"`
	VocabularyFile     string        `mapstructure:"vocabulary_file"`

	ShutdownTimeoutSecs int64         `mapstructure:"shutdown_timeout_seconds"`
	ShutdownTimeout     time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "wikisearch")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("addr", ":8000")
	v.SetDefault("storage_type", "sqlite")
	v.SetDefault("bbolt_path", "./data/articles.bolt")
	v.SetDefault("sqlite_path", "./data/articles.db")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("auth_mode", "header")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("wikipedia_api_url", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("search_timeout_seconds", 15)
	v.SetDefault("classifier_type", "static")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_api_url", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("classifier_timeout_seconds", 20)
	v.SetDefault("vocabulary_file", "")
	v.SetDefault("shutdown_timeout_seconds", 10)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.SearchTimeout = time.Duration(cfg.SearchTimeoutSecs) * time.Second
	cfg.ClassifierTimeout = time.Duration(cfg.ClassifierTimeoutS) * time.Second
	cfg.ShutdownTimeout = time.Duration(cfg.ShutdownTimeoutSecs) * time.Second

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageType {
	case "memory", "bbolt", "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported storage_type %q", c.StorageType)
	}
	if c.StorageType == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("postgres storage requires postgres_dsn")
	}

	switch c.AuthMode {
	case "header", "bearer":
	default:
		return fmt.Errorf("unsupported auth_mode %q", c.AuthMode)
	}
	if c.AuthMode == "bearer" && c.JWTSecret == "" {
		return fmt.Errorf("bearer auth requires jwt_secret")
	}

	switch c.ClassifierType {
	case "static", "openai":
	default:
		return fmt.Errorf("unsupported classifier_type %q", c.ClassifierType)
	}
	if c.ClassifierType == "openai" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("openai classifier requires openai_api_key")
	}

	if c.SearchTimeoutSecs <= 0 {
		return fmt.Errorf("invalid search_timeout_seconds (must be positive)")
	}
	if c.ClassifierTimeoutS <= 0 {
		return fmt.Errorf("invalid classifier_timeout_seconds (must be positive)")
	}
	if c.ShutdownTimeoutSecs <= 0 {
		return fmt.Errorf("invalid shutdown_timeout_seconds (must be positive)")
	}

	return nil
}
