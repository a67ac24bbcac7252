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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Ingest  IngestConfig  `yaml:"ingest" mapstructure:"ingest"`
	Ranking RankingConfig `yaml:"ranking" mapstructure:"ranking"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	TTLMinutes  int    `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
}

// CacheConfig configures the on-disk download cache.
type CacheConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	MaxAgeHours int    `yaml:"max_age_hours" mapstructure:"max_age_hours"`
}

// IngestConfig configures the dataset ingestion pipeline.
type IngestConfig struct {
	TempDir          string        `yaml:"temp_dir" mapstructure:"temp_dir"`
	ComtradeKey      string        `yaml:"comtrade_api_key" mapstructure:"comtrade_api_key"`
	SnapshotFallback bool          `yaml:"snapshot_fallback" mapstructure:"snapshot_fallback"`
	Retry            RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit          CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// RetryConfig configures transient-failure retries for connector downloads.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// CircuitConfig configures per-host circuit breakers for upstream data hosts.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// RankingConfig points at the optional ranking-weights override file.
type RankingConfig struct {
	ConfigPath string `yaml:"config_path" mapstructure:"config_path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("SEASONSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "seasonscope.db")
	v.SetDefault("store.cache_ttl_minutes", 10)
	v.SetDefault("cache.dir", ".seasonscope-cache")
	v.SetDefault("cache.max_age_hours", 168)
	v.SetDefault("ingest.temp_dir", "/tmp/seasonscope")
	v.SetDefault("ingest.snapshot_fallback", true)
	v.SetDefault("ingest.retry.max_attempts", 4)
	v.SetDefault("ingest.retry.initial_backoff_ms", 500)
	v.SetDefault("ingest.retry.max_backoff_ms", 30000)
	v.SetDefault("ingest.retry.multiplier", 2.0)
	v.SetDefault("ingest.retry.jitter_fraction", 0.2)
	v.SetDefault("ingest.circuit.failure_threshold", 5)
	v.SetDefault("ingest.circuit.reset_timeout_secs", 60)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
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

// Validate checks that required settings are present for the given command.
func (c *Config) Validate(command string) error {
	var missing []string

	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		missing = append(missing, "store.database_url")
	}
	if c.Store.Driver == "sqlite" && c.Store.Path == "" {
		missing = append(missing, "store.path")
	}

	switch command {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			return eris.Errorf("config: invalid server port %d", c.Server.Port)
		}
	case "ingest":
		if c.Ingest.TempDir == "" {
			missing = append(missing, "ingest.temp_dir")
		}
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings for %s: %s",
			command, strings.Join(missing, ", "))
	}
	return nil
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
