package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application-level configuration
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Cleaning CleaningConfig `yaml:"cleaning"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
	Run      RunConfig      `yaml:"run"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DataConfig points at the raw input and the output folders
type DataConfig struct {
	RawPath      string `yaml:"rawPath"`
	ProcessedDir string `yaml:"processedDir"`
	ReportsDir   string `yaml:"reportsDir"`
}

// CleaningConfig controls the cleaning thresholds
type CleaningConfig struct {
	NAThreshold     float64 `yaml:"naThreshold"`     // drop columns with a larger NA fraction
	OutlierQuantile float64 `yaml:"outlierQuantile"` // keep rows at or below this quantile of lead_time and adr
	DropDuplicates  bool    `yaml:"dropDuplicates"`
}

// AnalysisConfig controls bucketing, breakdowns and hypothesis thresholds
type AnalysisConfig struct {
	LeadTimeBuckets    string   `yaml:"leadTimeBuckets"`
	Breakdowns         []string `yaml:"breakdowns"` // selector names joined with "+"
	MonotonicTolerance float64  `yaml:"monotonicTolerance"`
	DepositGap         float64  `yaml:"depositGap"`
}

// StorageConfig selects where clean rows and rate tables are persisted
type StorageConfig struct {
	Driver      string `yaml:"driver"` // none, postgres or sqlite
	DatabaseURL string `yaml:"databaseURL"`
	SQLitePath  string `yaml:"sqlitePath"`
	MaxRetries  int    `yaml:"maxRetries"`
}

// LoggingConfig controls log verbosity
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RunConfig selects the run mode
type RunConfig struct {
	Mode        string        `yaml:"mode"` // once, watch or schedule
	Schedule    string        `yaml:"schedule"`
	MinInterval time.Duration `yaml:"minInterval"`
}

// MetricsConfig controls the Prometheus endpoint used by long-running modes
type MetricsConfig struct {
	Address string `yaml:"address"`
}

const (
	DriverNone     = "none"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ModeOnce     = "once"
	ModeWatch    = "watch"
	ModeSchedule = "schedule"
)

// DefaultBreakdowns are the groupings reported when none are configured
var DefaultBreakdowns = []string{
	"market_segment",
	"deposit_type",
	"lead_time_bucket",
	"distribution_channel",
	"hotel",
	"hotel+deposit_type",
}

// Load reads configuration from an optional YAML file, then applies environment overrides
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("HOTEL_CONFIG")
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Data: DataConfig{
			RawPath:      "data/raw/hotel_bookings.csv",
			ProcessedDir: "data/processed",
			ReportsDir:   "reports/tables",
		},
		Cleaning: CleaningConfig{
			NAThreshold:     0.99,
			OutlierQuantile: 0.99,
		},
		Analysis: AnalysisConfig{
			LeadTimeBuckets:    "0-7,7-30,30-90,90-180,180-",
			Breakdowns:         append([]string(nil), DefaultBreakdowns...),
			MonotonicTolerance: 0.02,
			DepositGap:         0.10,
		},
		Storage: StorageConfig{
			Driver:     DriverNone,
			SQLitePath: "data/processed/bookings.db",
			MaxRetries: 3,
		},
		Logging: LoggingConfig{Level: "info"},
		Run: RunConfig{
			Mode:        ModeOnce,
			Schedule:    "@every 1h",
			MinInterval: 2 * time.Second,
		},
		Metrics: MetricsConfig{Address: ":2112"},
	}
}

// Validate checks the values that cannot be checked by later stages.
// Bucket and selector syntax is validated where it is parsed.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Data.RawPath) == "" {
		return errors.New("config: data.rawPath is required")
	}
	if c.Cleaning.NAThreshold <= 0 || c.Cleaning.NAThreshold > 1 {
		return fmt.Errorf("config: cleaning.naThreshold must be in (0,1], got %v", c.Cleaning.NAThreshold)
	}
	if c.Cleaning.OutlierQuantile <= 0 || c.Cleaning.OutlierQuantile > 1 {
		return fmt.Errorf("config: cleaning.outlierQuantile must be in (0,1], got %v", c.Cleaning.OutlierQuantile)
	}
	if len(c.Analysis.Breakdowns) == 0 {
		return errors.New("config: analysis.breakdowns must not be empty")
	}
	switch c.Storage.Driver {
	case DriverNone, DriverSQLite:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("config: storage.databaseURL is required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Run.Mode {
	case ModeOnce, ModeWatch, ModeSchedule:
	default:
		return fmt.Errorf("config: unknown run mode %q", c.Run.Mode)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Data.RawPath = getEnv("HOTEL_RAW_PATH", cfg.Data.RawPath)
	cfg.Data.ProcessedDir = getEnv("HOTEL_PROCESSED_DIR", cfg.Data.ProcessedDir)
	cfg.Data.ReportsDir = getEnv("HOTEL_REPORTS_DIR", cfg.Data.ReportsDir)

	cfg.Cleaning.NAThreshold = getEnvFloat("HOTEL_NA_THRESHOLD", cfg.Cleaning.NAThreshold)
	cfg.Cleaning.OutlierQuantile = getEnvFloat("HOTEL_OUTLIER_QUANTILE", cfg.Cleaning.OutlierQuantile)
	cfg.Cleaning.DropDuplicates = getEnvBool("HOTEL_DROP_DUPLICATES", cfg.Cleaning.DropDuplicates)

	cfg.Analysis.LeadTimeBuckets = getEnv("HOTEL_LEAD_TIME_BUCKETS", cfg.Analysis.LeadTimeBuckets)
	if v := os.Getenv("HOTEL_BREAKDOWNS"); v != "" {
		var breakdowns []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				breakdowns = append(breakdowns, b)
			}
		}
		cfg.Analysis.Breakdowns = breakdowns
	}

	cfg.Storage.Driver = getEnv("HOTEL_STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.DatabaseURL = getEnv("DATABASE_URL", cfg.Storage.DatabaseURL)
	cfg.Storage.SQLitePath = getEnv("HOTEL_SQLITE_PATH", cfg.Storage.SQLitePath)
	cfg.Storage.MaxRetries = getEnvInt("MAX_RETRIES", cfg.Storage.MaxRetries)

	cfg.Logging.Level = getEnv("HOTEL_LOG_LEVEL", cfg.Logging.Level)

	cfg.Run.Mode = getEnv("HOTEL_RUN_MODE", cfg.Run.Mode)
	cfg.Run.Schedule = getEnv("HOTEL_SCHEDULE", cfg.Run.Schedule)
	if v := os.Getenv("HOTEL_MIN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Run.MinInterval = d
		}
	}

	cfg.Metrics.Address = getEnv("HOTEL_METRICS_ADDRESS", cfg.Metrics.Address)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return strings.EqualFold(val, "true") || val == "1"
	}
	return defaultVal
}
