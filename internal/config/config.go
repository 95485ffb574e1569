// Package config loads the pipeline's YAML configuration and applies
// environment-variable overrides for the storage DSN and cache TTL,
// following the override-after-unmarshal pattern the rest of the
// ambient stack uses.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/caldera-energy/pricefeed/internal/errs"
)

// SourceConfig is one entry under data_sources in the YAML surface.
type SourceConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Commodities []string `yaml:"commodities,omitempty"`
	Series      []string `yaml:"series,omitempty"`
	Tickers     []string `yaml:"tickers,omitempty"`
}

// NativeIDs returns whichever of Commodities/Series/Tickers is
// populated — the provider-native series identifiers this source is
// configured to fetch. The field used depends on the source (the
// default EIA entry lists them under commodities, FRED under series,
// quote providers under tickers); exactly one is set per source.
func (s SourceConfig) NativeIDs() []string {
	switch {
	case len(s.Commodities) > 0:
		return s.Commodities
	case len(s.Series) > 0:
		return s.Series
	default:
		return s.Tickers
	}
}

// PipelineConfig names and versions the running configuration.
type PipelineConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// DateRangeConfig controls how the orchestrator computes its fetch window.
type DateRangeConfig struct {
	Mode         string `yaml:"mode"`
	LookbackDays int    `yaml:"lookback_days"`
}

// OutlierConfig configures DetectOutliers.
type OutlierConfig struct {
	ZScoreThreshold  float64 `yaml:"z_score_threshold"`
	IQRMultiplier    float64 `yaml:"iqr_multiplier"`
	RollingWindowDays int    `yaml:"rolling_window_days"`
}

// CompletenessConfig configures CheckCompleteness.
type CompletenessConfig struct {
	MaxGapDays     int     `yaml:"max_gap_days"`
	MinDataPoints  int     `yaml:"min_data_points"`
	MaxMissingRate float64 `yaml:"max_missing_rate"`
}

// TolerancesConfig configures ValidateCrossSource.
type TolerancesConfig struct {
	CrossSourceTolerance float64 `yaml:"cross_source_tolerance"`
	MaxDailyChange       float64 `yaml:"max_daily_change"`
}

// QualityWeightsConfig configures GenerateQualityReport's weighted sum.
type QualityWeightsConfig struct {
	Completeness     float64 `yaml:"completeness"`
	Consistency      float64 `yaml:"consistency"`
	SchemaCompliance float64 `yaml:"schema_compliance"`
	Outlier          float64 `yaml:"outlier"`
}

// ValidationConfig groups every validator knob.
type ValidationConfig struct {
	QualityThreshold int                  `yaml:"quality_threshold"`
	ExcludeWeekends  bool                 `yaml:"exclude_weekends"`
	Outliers         OutlierConfig        `yaml:"outliers"`
	Completeness     CompletenessConfig   `yaml:"completeness"`
	Tolerances       TolerancesConfig     `yaml:"tolerances"`
	QualityWeights   QualityWeightsConfig `yaml:"quality_weights"`
}

// StorageConfig controls the storage adapter's write behavior.
type StorageConfig struct {
	BatchSize int  `yaml:"batch_size"`
	Upsert    bool `yaml:"upsert"`
	DSN       string `yaml:"dsn"`
}

// ErrorHandlingConfig controls retry and partial-failure behavior.
type ErrorHandlingConfig struct {
	RetryAttempts            int  `yaml:"retry_attempts"`
	ContinueOnPartialFailure bool `yaml:"continue_on_partial_failure"`
}

// CacheConfig controls the per-adapter TTL cache.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLMinutes int  `yaml:"ttl_minutes"`
}

// Config is the root of the YAML configuration surface.
type Config struct {
	Pipeline      PipelineConfig          `yaml:"pipeline"`
	DataSources   map[string]SourceConfig `yaml:"data_sources"`
	DateRange     DateRangeConfig         `yaml:"date_range"`
	Validation    ValidationConfig        `yaml:"validation"`
	Storage       StorageConfig           `yaml:"storage"`
	ErrorHandling ErrorHandlingConfig     `yaml:"error_handling"`
	Cache         CacheConfig             `yaml:"cache"`
}

// Default returns the configuration with every default cited in the
// pipeline's validation and ingestion design.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{Name: "pricefeed", Version: "1"},
		DataSources: map[string]SourceConfig{
			"eia":   {Enabled: true, Commodities: []string{"PET.RWTC.D", "NG.RNGWHHD.D"}},
			"fred":  {Enabled: true, Series: []string{"DCOILWTICO", "DCOILBRENTEU"}},
			"quote": {Enabled: true, Tickers: []string{"CL=F", "BZ=F"}},
		},
		DateRange: DateRangeConfig{Mode: "incremental", LookbackDays: 30},
		Validation: ValidationConfig{
			QualityThreshold: 70,
			ExcludeWeekends:  true,
			Outliers: OutlierConfig{
				ZScoreThreshold:   3.0,
				IQRMultiplier:     1.5,
				RollingWindowDays: 30,
			},
			Completeness: CompletenessConfig{
				MaxGapDays:     2,
				MinDataPoints:  30,
				MaxMissingRate: 0.05,
			},
			Tolerances: TolerancesConfig{
				CrossSourceTolerance: 0.05,
				MaxDailyChange:       0.50,
			},
			QualityWeights: QualityWeightsConfig{
				Completeness:     0.4,
				Consistency:      0.3,
				SchemaCompliance: 0.2,
				Outlier:          0.1,
			},
		},
		Storage: StorageConfig{BatchSize: 500, Upsert: true},
		ErrorHandling: ErrorHandlingConfig{
			RetryAttempts:            3,
			ContinueOnPartialFailure: true,
		},
		Cache: CacheConfig{Enabled: true, TTLMinutes: 5},
	}
}

// Load reads configPath (if non-empty and present) over the defaults,
// then applies environment overrides for the storage DSN and cache TTL.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, readErr := os.ReadFile(configPath)
			if readErr != nil {
				return nil, errs.New(errs.Config, "config", "read config file", readErr)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errs.New(errs.Config, "config", "parse config file", err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if dsn := os.Getenv("PRICEFEED_DB_DSN"); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if ttl := os.Getenv("CACHE_TTL_MINUTES"); ttl != "" {
		if v, err := strconv.Atoi(ttl); err == nil {
			cfg.Cache.TTLMinutes = v
		}
	}
}

// CacheTTL returns the configured TTL as a time.Duration, or zero
// (which disables the adapter caches) when cache.enabled is false.
func (c *Config) CacheTTL() time.Duration {
	if !c.Cache.Enabled {
		return 0
	}
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// Validate rejects configurations that would make the pipeline behave
// incoherently rather than failing it deep inside a run.
func (c *Config) Validate() error {
	if c.Validation.QualityThreshold < 0 || c.Validation.QualityThreshold > 100 {
		return errs.New(errs.Config, "config", "quality_threshold must be within 0..100", nil)
	}
	if c.Storage.BatchSize <= 0 {
		return errs.New(errs.Config, "config", "storage.batch_size must be positive", nil)
	}
	if c.ErrorHandling.RetryAttempts < 0 {
		return errs.New(errs.Config, "config", "error_handling.retry_attempts cannot be negative", nil)
	}
	switch c.DateRange.Mode {
	case "incremental", "full_refresh", "backfill":
	default:
		return errs.New(errs.Config, "config", "date_range.mode must be incremental, full_refresh, or backfill", nil)
	}
	return nil
}

// EIAAPIKey reads the EIA credential from the environment.
func EIAAPIKey() (string, error) {
	return requireEnv("EIA_API_KEY")
}

// FREDAPIKey reads the FRED credential from the environment.
func FREDAPIKey() (string, error) {
	return requireEnv("FRED_API_KEY")
}

func requireEnv(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", errs.New(errs.Config, "config", name+" is not set", nil)
	}
	return v, nil
}
