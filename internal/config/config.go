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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	SoilGrids SoilGridsConfig `yaml:"soilgrids" mapstructure:"soilgrids"`
	Cluster   ClusterConfig   `yaml:"cluster" mapstructure:"cluster"`
	Soil      SoilConfig      `yaml:"soil" mapstructure:"soil"`
	Survey    SurveyConfig    `yaml:"survey" mapstructure:"survey"`
	Crops     CropsConfig     `yaml:"crops" mapstructure:"crops"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	ReadTimeoutSec int      `yaml:"read_timeout_secs" mapstructure:"read_timeout_secs"`
}

// SoilGridsConfig configures the ISRIC SoilGrids lookup client.
type SoilGridsConfig struct {
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	Depth            string  `yaml:"depth" mapstructure:"depth"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec       float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMS int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int     `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
	CacheSize        int     `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTLHours    int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// ClusterConfig configures farm-center clustering.
type ClusterConfig struct {
	K int `yaml:"k" mapstructure:"k"`
	// Seed fixes initialization when non-zero.
	Seed uint64 `yaml:"seed" mapstructure:"seed"`
}

// SoilConfig configures soil quality scoring.
type SoilConfig struct {
	Weights SoilWeights `yaml:"weights" mapstructure:"weights"`
}

// SoilWeights are the per-factor weights of the overall soil score. They
// should sum to 1.
type SoilWeights struct {
	OrganicCarbon float64 `yaml:"organic_carbon" mapstructure:"organic_carbon" json:"organic_carbon"`
	PH            float64 `yaml:"ph" mapstructure:"ph" json:"ph"`
	Clay          float64 `yaml:"clay" mapstructure:"clay" json:"clay"`
	Sand          float64 `yaml:"sand" mapstructure:"sand" json:"sand"`
}

// SurveyConfig configures farm-wide soil surveys.
type SurveyConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// CropsConfig points at an optional crop catalogue.
type CropsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TERRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "terra.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.read_timeout_secs", 15)
	v.SetDefault("soilgrids.base_url", "https://rest.isric.org/soilgrids/v2.0")
	v.SetDefault("soilgrids.depth", "0-5cm")
	v.SetDefault("soilgrids.timeout_secs", 30)
	v.SetDefault("soilgrids.rate_per_sec", 0.5)
	v.SetDefault("soilgrids.max_attempts", 3)
	v.SetDefault("soilgrids.initial_backoff_ms", 500)
	v.SetDefault("soilgrids.failure_threshold", 5)
	v.SetDefault("soilgrids.reset_timeout_secs", 60)
	v.SetDefault("soilgrids.cache_size", 1024)
	v.SetDefault("soilgrids.cache_ttl_hours", 24)
	v.SetDefault("cluster.k", 3)
	v.SetDefault("cluster.seed", 0)
	v.SetDefault("soil.weights.organic_carbon", 0.35)
	v.SetDefault("soil.weights.ph", 0.25)
	v.SetDefault("soil.weights.clay", 0.20)
	v.SetDefault("soil.weights.sand", 0.20)
	v.SetDefault("survey.concurrency", 4)

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
