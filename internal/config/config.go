package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// wqpDateFormat is the MM-DD-YYYY layout the Water Quality Portal expects
// for startDateLo/startDateHi query parameters.
const wqpDateFormat = "01-02-2006"

// Config holds the full application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	WQP      WQPConfig      `yaml:"wqp" mapstructure:"wqp"`
	Orgs     OrgsConfig     `yaml:"orgs" mapstructure:"orgs"`
	Matching MatchingConfig `yaml:"matching" mapstructure:"matching"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DataConfig holds the on-disk layout of pipeline stage boundaries.
type DataConfig struct {
	RawDir       string `yaml:"raw_dir" mapstructure:"raw_dir"`
	ProcessedDir string `yaml:"processed_dir" mapstructure:"processed_dir"`
	OutputDir    string `yaml:"output_dir" mapstructure:"output_dir"`
}

// WQPConfig configures the Water Quality Portal extraction.
type WQPConfig struct {
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	StateCode      string `yaml:"state_code" mapstructure:"state_code"`
	Characteristic string `yaml:"characteristic" mapstructure:"characteristic"`
	SiteType       string `yaml:"site_type" mapstructure:"site_type"`
	SampleMedia    string `yaml:"sample_media" mapstructure:"sample_media"`
	StartDate      string `yaml:"start_date" mapstructure:"start_date"` // MM-DD-YYYY
	EndDate        string `yaml:"end_date" mapstructure:"end_date"`     // MM-DD-YYYY
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
}

// OrgsConfig partitions organization identifiers into the two populations.
type OrgsConfig struct {
	Volunteer    []string `yaml:"volunteer" mapstructure:"volunteer"`
	Professional []string `yaml:"professional" mapstructure:"professional"`
}

// MatchingConfig holds the spatial-temporal matching tolerances.
type MatchingConfig struct {
	MaxDistanceMeters float64 `yaml:"max_distance_meters" mapstructure:"max_distance_meters"`
	MaxTimeHours      float64 `yaml:"max_time_hours" mapstructure:"max_time_hours"`
	Strategy          string  `yaml:"strategy" mapstructure:"strategy"`
	MinConcentration  float64 `yaml:"min_concentration" mapstructure:"min_concentration"`
	Workers           int     `yaml:"workers" mapstructure:"workers"`
}

// StoreConfig configures the run store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite | postgres | none
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the read-only results API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BLUETHUMB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("data.raw_dir", "data/raw")
	v.SetDefault("data.processed_dir", "data/processed")
	v.SetDefault("data.output_dir", "data/outputs")
	v.SetDefault("wqp.base_url", "https://www.waterqualitydata.us")
	v.SetDefault("wqp.state_code", "US:40") // Oklahoma
	v.SetDefault("wqp.characteristic", "Chloride")
	v.SetDefault("wqp.site_type", "Stream")
	v.SetDefault("wqp.sample_media", "Water")
	v.SetDefault("wqp.user_agent", "bluethumb-validation/1.0")
	v.SetDefault("orgs.volunteer", []string{"OKCONCOM_WQX", "CONSERVATION_COMMISSION"})
	v.SetDefault("orgs.professional", []string{"OKWRB-STREAMS_WQX", "O_MTRIBE_WQX"})
	v.SetDefault("matching.max_distance_meters", 100.0)
	v.SetDefault("matching.max_time_hours", 48.0)
	v.SetDefault("matching.strategy", "nearest")
	v.SetDefault("matching.min_concentration", 25.0)
	v.SetDefault("matching.workers", 0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "data/bluethumb.db")
	v.SetDefault("store.max_conns", 8)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("server.port", 8080)

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

// Validate checks the configuration needed by the given command mode and
// reports every problem at once, before any work starts.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "extract":
		problems = append(problems, c.extractProblems()...)
	case "transform":
		problems = append(problems, c.transformProblems()...)
	case "analyze":
		problems = append(problems, c.transformProblems()...)
		problems = append(problems, c.matchingProblems()...)
		problems = append(problems, c.storeProblems(false)...)
	case "pipeline":
		problems = append(problems, c.extractProblems()...)
		problems = append(problems, c.transformProblems()...)
		problems = append(problems, c.matchingProblems()...)
		problems = append(problems, c.storeProblems(false)...)
	case "report", "runs":
		problems = append(problems, c.storeProblems(true)...)
	case "serve":
		problems = append(problems, c.storeProblems(true)...)
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) extractProblems() []string {
	var problems []string
	if c.WQP.BaseURL == "" {
		problems = append(problems, "wqp.base_url is required")
	}
	if c.WQP.StateCode == "" {
		problems = append(problems, "wqp.state_code is required")
	}
	if c.WQP.Characteristic == "" {
		problems = append(problems, "wqp.characteristic is required")
	}
	for _, d := range []struct{ key, val string }{
		{"wqp.start_date", c.WQP.StartDate},
		{"wqp.end_date", c.WQP.EndDate},
	} {
		if d.val == "" {
			continue
		}
		if _, err := time.Parse(wqpDateFormat, d.val); err != nil {
			problems = append(problems, d.key+" must be MM-DD-YYYY")
		}
	}
	return problems
}

func (c *Config) transformProblems() []string {
	var problems []string
	if c.WQP.Characteristic == "" {
		problems = append(problems, "wqp.characteristic is required")
	}
	if len(c.Orgs.Volunteer) == 0 {
		problems = append(problems, "orgs.volunteer must list at least one organization")
	}
	if len(c.Orgs.Professional) == 0 {
		problems = append(problems, "orgs.professional must list at least one organization")
	}
	if c.Matching.MinConcentration < 0 {
		problems = append(problems, "matching.min_concentration must be >= 0")
	}
	return problems
}

func (c *Config) matchingProblems() []string {
	var problems []string
	if c.Matching.MaxDistanceMeters <= 0 {
		problems = append(problems, "matching.max_distance_meters must be > 0")
	}
	if c.Matching.MaxTimeHours <= 0 {
		problems = append(problems, "matching.max_time_hours must be > 0")
	}
	switch strings.ToLower(strings.TrimSpace(c.Matching.Strategy)) {
	case "all", "nearest":
	default:
		problems = append(problems, "matching.strategy must be \"all\" or \"nearest\"")
	}
	if c.Matching.Workers < 0 {
		problems = append(problems, "matching.workers must be >= 0")
	}
	return problems
}

// storeProblems validates the store section. requireBackend rejects
// driver "none" for modes that read stored runs.
func (c *Config) storeProblems(requireBackend bool) []string {
	var problems []string
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	case "none":
		if requireBackend {
			problems = append(problems, "store.driver \"none\" has no stored runs to read")
		}
	default:
		problems = append(problems, "store.driver must be sqlite, postgres, or none")
	}
	return problems
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
