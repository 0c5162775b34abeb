// Package config loads application configuration and initializes logging.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	API    APIConfig    `yaml:"api" mapstructure:"api"`
	Poll   PollConfig   `yaml:"poll" mapstructure:"poll"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Notion NotionConfig `yaml:"notion" mapstructure:"notion"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// APIConfig holds DeckLens backend settings.
type APIConfig struct {
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	Token     string  `yaml:"token" mapstructure:"token"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// PollConfig configures the two polling loops.
type PollConfig struct {
	// DeckIntervalSecs is the deck-status poll period for the tracker.
	DeckIntervalSecs int `yaml:"deck_interval_secs" mapstructure:"deck_interval_secs"`
	// ArtifactIntervalSecs is the delay between artifact poll attempts.
	ArtifactIntervalSecs int `yaml:"artifact_interval_secs" mapstructure:"artifact_interval_secs"`
	// ArtifactTimeoutSecs is the total artifact polling budget.
	ArtifactTimeoutSecs int `yaml:"artifact_timeout_secs" mapstructure:"artifact_timeout_secs"`
}

// DeckInterval returns the deck poll period as a duration.
func (p PollConfig) DeckInterval() time.Duration {
	return time.Duration(p.DeckIntervalSecs) * time.Second
}

// ArtifactInterval returns the artifact poll delay as a duration.
func (p PollConfig) ArtifactInterval() time.Duration {
	return time.Duration(p.ArtifactIntervalSecs) * time.Second
}

// ArtifactTimeout returns the artifact polling budget as a duration.
func (p PollConfig) ArtifactTimeout() time.Duration {
	return time.Duration(p.ArtifactTimeoutSecs) * time.Second
}

// StoreConfig configures the local cache database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// DSN returns the connection string for the configured driver.
func (s StoreConfig) DSN() string {
	if s.Driver == "postgres" {
		return s.DatabaseURL
	}
	return s.Path
}

// NotionConfig holds Notion export credentials.
type NotionConfig struct {
	Token    string `yaml:"token" mapstructure:"token"`
	ReportDB string `yaml:"report_db" mapstructure:"report_db"`
}

// ServerConfig configures the local dashboard server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
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
	v.AddConfigPath("$HOME/.decklens")

	// Environment
	v.SetEnvPrefix("DECKLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one, otherwise AutomaticEnv never binds it.
	v.SetDefault("api.base_url", "https://api.decklens.io/v1")
	v.SetDefault("api.token", "")
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("poll.deck_interval_secs", 2)
	v.SetDefault("poll.artifact_interval_secs", 3)
	v.SetDefault("poll.artifact_timeout_secs", 300)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "decklens.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.report_db", "")
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
func InitLogger(cfg LogConfig) error {
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
