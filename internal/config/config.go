package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/sells-group/fieldmap/internal/fetcher"
	"github.com/sells-group/fieldmap/internal/geo"
	"github.com/sells-group/fieldmap/internal/interp"
	"github.com/sells-group/fieldmap/internal/raster"
	"github.com/sells-group/fieldmap/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Field    FieldConfig    `yaml:"field" mapstructure:"field"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// FieldConfig holds the defaults for building a field from points.
type FieldConfig struct {
	Attribute  string  `yaml:"attribute" mapstructure:"attribute"`
	Method     string  `yaml:"method" mapstructure:"method"`
	Resolution float64 `yaml:"resolution" mapstructure:"resolution"` // 0 derives from the extent
	NoData     float64 `yaml:"nodata" mapstructure:"nodata"`
	CRS        string  `yaml:"crs" mapstructure:"crs"`
	ULC        string  `yaml:"ulc" mapstructure:"ulc"` // "x,y"; empty derives from the samples
	LRC        string  `yaml:"lrc" mapstructure:"lrc"`
}

// ClassifyConfig configures natural-breaks classification.
type ClassifyConfig struct {
	Classes   int `yaml:"classes" mapstructure:"classes"`
	MaxSample int `yaml:"max_sample" mapstructure:"max_sample"`
}

// OutputConfig controls where rasters are written.
type OutputConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Format string `yaml:"format" mapstructure:"format"`
	ASCII  bool   `yaml:"ascii" mapstructure:"ascii"` // also write an ESRI ASCII grid copy
}

// StoreConfig configures the run catalog backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// PoolConfig returns the Postgres pool settings, or nil when unset.
func (s StoreConfig) PoolConfig() *store.PoolConfig {
	if s.MaxConns == 0 && s.MinConns == 0 {
		return nil
	}
	return &store.PoolConfig{MaxConns: s.MaxConns, MinConns: s.MinConns}
}

// FetchConfig configures downloads of remote point tables.
type FetchConfig struct {
	TempDir     string  `yaml:"temp_dir" mapstructure:"temp_dir"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
}

// HTTPOptions converts the fetch settings for fetcher.NewHTTPFetcher.
func (f FetchConfig) HTTPOptions() fetcher.HTTPOptions {
	return fetcher.HTTPOptions{
		UserAgent:  f.UserAgent,
		Timeout:    time.Duration(f.TimeoutSecs) * time.Second,
		MaxRetries: f.MaxRetries,
		Rate:       rate.Limit(f.RatePerSec),
		Burst:      f.Burst,
	}
}

// FTPOptions converts the fetch settings for fetcher.NewFTPFetcher.
func (f FetchConfig) FTPOptions() fetcher.FTPOptions {
	return fetcher.FTPOptions{Timeout: time.Duration(f.TimeoutSecs) * time.Second}
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the catalog API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
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
	v.SetEnvPrefix("FIELDMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("field.attribute", "dz")
	v.SetDefault("field.method", "linear")
	v.SetDefault("field.resolution", 0)
	v.SetDefault("field.nodata", -9999)
	v.SetDefault("field.crs", "EPSG:4326")
	v.SetDefault("field.ulc", "")
	v.SetDefault("field.lrc", "")
	v.SetDefault("classify.classes", 5)
	v.SetDefault("classify.max_sample", 3000)
	v.SetDefault("output.dir", "rasters")
	v.SetDefault("output.format", "gtiff")
	v.SetDefault("output.ascii", true)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "fieldmap.db")
	v.SetDefault("fetch.temp_dir", "/tmp/fieldmap")
	v.SetDefault("fetch.user_agent", "fieldmap/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_sec", 5)
	v.SetDefault("fetch.burst", 1)
	v.SetDefault("batch.workers", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
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

// Validate checks the values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if _, err := interp.ParseMethod(c.Field.Method); err != nil && c.Field.Method != "none" {
		return eris.Wrap(err, "config: field.method")
	}
	if c.Field.Resolution < 0 {
		return eris.Errorf("config: field.resolution must not be negative, got %g", c.Field.Resolution)
	}
	if (c.Field.ULC == "") != (c.Field.LRC == "") {
		return eris.New("config: field.ulc and field.lrc must be set together")
	}
	if c.Field.ULC != "" {
		ulc, err := geo.ParseCoord(c.Field.ULC)
		if err != nil {
			return eris.Wrap(err, "config: field.ulc")
		}
		lrc, err := geo.ParseCoord(c.Field.LRC)
		if err != nil {
			return eris.Wrap(err, "config: field.lrc")
		}
		if _, err := geo.ExtentFromCorners(ulc, lrc); err != nil {
			return eris.Wrap(err, "config: field corners")
		}
	}
	if c.Classify.Classes < 1 {
		return eris.Errorf("config: classify.classes must be at least 1, got %d", c.Classify.Classes)
	}
	if _, err := raster.ParseFormat(c.Output.Format); err != nil {
		return eris.Wrap(err, "config: output.format")
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if c.Batch.Workers < 1 {
		return eris.Errorf("config: batch.workers must be at least 1, got %d", c.Batch.Workers)
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
