// Package config loads application configuration and sets up logging.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/dengue-atlas/internal/cache"
	"github.com/sells-group/dengue-atlas/internal/resilience"
	"github.com/sells-group/dengue-atlas/internal/risk"
)

// Config holds the full application configuration.
type Config struct {
	Analytics AnalyticsConfig          `yaml:"analytics" mapstructure:"analytics"`
	Boundary  BoundaryConfig           `yaml:"boundary" mapstructure:"boundary"`
	Resolver  ResolverConfig           `yaml:"resolver" mapstructure:"resolver"`
	Risk      RiskConfig               `yaml:"risk" mapstructure:"risk"`
	Cache     cache.Config             `yaml:"cache" mapstructure:"cache"`
	Breaker   resilience.BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	Server    ServerConfig             `yaml:"server" mapstructure:"server"`
	Dashboard DashboardConfig          `yaml:"dashboard" mapstructure:"dashboard"`
	Log       LogConfig                `yaml:"log" mapstructure:"log"`
}

// AnalyticsConfig points at the clustering and forecasting backend.
type AnalyticsConfig struct {
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	RateLimit   float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	UserAgent   string        `yaml:"user_agent" mapstructure:"user_agent"`
}

// BoundaryConfig locates the kelurahan boundary document.
type BoundaryConfig struct {
	// Source is a local path or an http(s)/ftp URL (GeoJSON, .shp or .zip).
	Source     string        `yaml:"source" mapstructure:"source"`
	Watch      bool          `yaml:"watch" mapstructure:"watch"`
	TempDir    string        `yaml:"temp_dir" mapstructure:"temp_dir"`
	FTPTimeout time.Duration `yaml:"ftp_timeout" mapstructure:"ftp_timeout"`
}

// ResolverConfig tunes region-key resolution.
type ResolverConfig struct {
	SampleSize int    `yaml:"sample_size" mapstructure:"sample_size"`
	Tie        string `yaml:"tie" mapstructure:"tie"`
}

// RiskConfig is the tier vocabulary and its colors.
type RiskConfig struct {
	Scheme  risk.Scheme       `yaml:",inline" mapstructure:",squash"`
	Palette map[string]string `yaml:"palette" mapstructure:"palette"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int           `yaml:"port" mapstructure:"port"`
	CORSOrigins     []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// DashboardConfig holds the selectable years and default analysis parameters.
type DashboardConfig struct {
	Years          []int   `yaml:"years" mapstructure:"years"`
	DefaultYear    int     `yaml:"default_year" mapstructure:"default_year"`
	Mode           string  `yaml:"mode" mapstructure:"mode"`
	Clusters       int     `yaml:"n_clusters" mapstructure:"n_clusters"`
	Eps            float64 `yaml:"eps" mapstructure:"eps"`
	MinSamples     int     `yaml:"min_samples" mapstructure:"min_samples"`
	TopN           int     `yaml:"top_n" mapstructure:"top_n"`
	ForecastMonths int     `yaml:"forecast_months" mapstructure:"forecast_months"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml and DENGUE_* variables,
// later sources overriding earlier ones.
func Load() (*Config, error) {
	// Variables already in the environment win over .env.
	_ = godotenv.Load(".env")

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DENGUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("analytics.base_url", "http://localhost:8000")
	v.SetDefault("analytics.timeout", "30s")
	v.SetDefault("analytics.max_attempts", 1)
	v.SetDefault("analytics.rate_limit", 20)
	v.SetDefault("analytics.user_agent", "dengue-atlas/1.0")
	v.SetDefault("boundary.source", "data/semarang_kelurahan.geojson")
	v.SetDefault("boundary.watch", false)
	v.SetDefault("boundary.temp_dir", "")
	v.SetDefault("boundary.ftp_timeout", "60s")
	v.SetDefault("resolver.sample_size", 10)
	v.SetDefault("resolver.tie", "latest")
	v.SetDefault("risk.names", risk.DefaultNames)
	v.SetDefault("risk.overflow", string(risk.OverflowSynthesize))
	v.SetDefault("risk.separate_noise", true)
	v.SetDefault("risk.noise_label", risk.DefaultNoiseLabel)
	v.SetDefault("risk.palette", map[string]string{})
	v.SetDefault("cache.driver", cache.DriverMemory)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.max_entries", 256)
	v.SetDefault("cache.dsn", "")
	v.SetDefault("cache.key_prefix", "dengue-atlas:")
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.reset_timeout", "30s")
	v.SetDefault("breaker.half_open_probes", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("dashboard.years", []int{2023, 2024, 2025})
	v.SetDefault("dashboard.default_year", 2024)
	v.SetDefault("dashboard.mode", "kmeans")
	v.SetDefault("dashboard.n_clusters", 3)
	v.SetDefault("dashboard.eps", 3.0)
	v.SetDefault("dashboard.min_samples", 3)
	v.SetDefault("dashboard.top_n", 10)
	v.SetDefault("dashboard.forecast_months", 6)
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

// Validate checks the settings a command mode needs. Modes: "serve",
// "dashboard", "resolve", "forecast", "rekap". All problems are reported
// together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve", "dashboard", "resolve", "forecast", "rekap":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if mode != "rekap" && c.Analytics.BaseURL == "" {
		errs = append(errs, "analytics.base_url is required")
	}
	if (mode == "serve" || mode == "dashboard" || mode == "resolve") && c.Boundary.Source == "" {
		errs = append(errs, "boundary.source is required")
	}
	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, "server.port must be > 0 and <= 65535")
	}

	if err := c.Risk.Scheme.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	switch c.Resolver.Tie {
	case "", "latest", "earliest":
	default:
		errs = append(errs, "resolver.tie must be latest or earliest")
	}
	if c.Resolver.SampleSize < 0 {
		errs = append(errs, "resolver.sample_size must be >= 0")
	}
	switch c.Cache.Driver {
	case "", cache.DriverNone, cache.DriverMemory, cache.DriverRedis, cache.DriverSQLite, cache.DriverPostgres:
	default:
		errs = append(errs, "unknown cache.driver "+c.Cache.Driver)
	}
	if (c.Cache.Driver == cache.DriverRedis || c.Cache.Driver == cache.DriverPostgres) && c.Cache.DSN == "" {
		errs = append(errs, "cache.dsn is required for "+c.Cache.Driver)
	}
	switch c.Dashboard.Mode {
	case "", "kmeans", "dbscan":
	default:
		errs = append(errs, "dashboard.mode must be kmeans or dbscan")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
