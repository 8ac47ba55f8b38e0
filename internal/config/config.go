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
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	WITS     WITSConfig     `yaml:"wits" mapstructure:"wits"`
	WTO      WTOConfig      `yaml:"wto" mapstructure:"wto"`
	Embed    EmbedConfig    `yaml:"embed" mapstructure:"embed"`
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the backend shared by the code indexes and the
// metadata cache.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// WITSConfig configures the primary bulk trade-data source.
type WITSConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the per-query deadline for primary-source requests.
func (c WITSConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// WTOConfig configures the secondary indicator-data source. An empty Key
// disables cross-referencing entirely.
type WTOConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the per-query deadline for secondary-source requests.
func (c WTOConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// EmbedConfig selects and configures the embedding function.
type EmbedConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"`
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`
	JinaKey    string `yaml:"jina_api_key" mapstructure:"jina_api_key"`
	JinaURL    string `yaml:"jina_base_url" mapstructure:"jina_base_url"`
	JinaModel  string `yaml:"jina_model" mapstructure:"jina_model"`
}

// ResolverConfig tunes semantic code resolution.
type ResolverConfig struct {
	TopK int `yaml:"top_k" mapstructure:"top_k"`
}

// ServerConfig configures the HTTP server.
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

	// Environment
	v.SetEnvPrefix("TARIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "tariff.db")
	v.SetDefault("wits.base_url", "https://wits.worldbank.org/API/V1")
	v.SetDefault("wits.timeout_secs", 10)
	v.SetDefault("wto.base_url", "https://api.wto.org/timeseries/v1")
	v.SetDefault("wto.timeout_secs", 10)
	v.SetDefault("embed.provider", "local")
	v.SetDefault("embed.dimensions", 256)
	v.SetDefault("embed.jina_base_url", "https://api.jina.ai/v1")
	v.SetDefault("embed.jina_model", "jina-embeddings-v3")
	v.SetDefault("resolver.top_k", 1)
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
