package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "mpdcli/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Bands    BandConfig     `yaml:"bands" envconfig:"BANDS"`
	Matching MatchingConfig `yaml:"matching" envconfig:"MATCHING"`
	Rates    RateConfig     `yaml:"rates" envconfig:"RATES"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Report   ReportConfig   `yaml:"report" envconfig:"REPORT"`
}

// BandConfig controls premium banding. Premiums are clamped to
// [MinBps, MaxBps] before banding; WidthBps is the band width and both clamp
// bounds must sit on a band boundary. The default -60..560 range mirrors the
// historical report layout and has no stronger derivation, which is exactly
// why it lives here and not in code.
type BandConfig struct {
	MinBps   int `yaml:"min_bps" envconfig:"MIN_BPS" default:"-60"`
	MaxBps   int `yaml:"max_bps" envconfig:"MAX_BPS" default:"560"`
	WidthBps int `yaml:"width_bps" envconfig:"WIDTH_BPS" default:"20" validate:"gt=0"`
}

// MatchingConfig controls benchmark quote matching
type MatchingConfig struct {
	// Maximum calendar-day distance for using a quote when no quote precedes
	// the document date.
	ToleranceDays int `yaml:"tolerance_days" envconfig:"TOLERANCE_DAYS" default:"5" validate:"gte=0"`
}

// RateConfig declares the unit of measure of initial rates per data source.
// "auto" keeps the historical heuristic (bare values in (0.5,15) are
// percentages); "percent" and "fraction" skip inference entirely.
type RateConfig struct {
	Unit string `yaml:"unit" envconfig:"UNIT" default:"auto" validate:"oneof=auto percent fraction"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/mpdcli.log"`
}

// PathsConfig contains input and output file locations
type PathsConfig struct {
	DisclosureFile string `yaml:"disclosure_file" envconfig:"DISCLOSURE_FILE" default:"data/disclosures.xlsx"`
	QuoteFile      string `yaml:"quote_file" envconfig:"QUOTE_FILE" default:"data/swap_rates.csv"`
	OutputDir      string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"reports"`
}

// ReportConfig controls the generated report
type ReportConfig struct {
	// Band labels for the lender market-share table. Empty means every band
	// present in the filtered data.
	SelectedBands []string `yaml:"selected_bands" envconfig:"SELECTED_BANDS"`
}

// Load loads configuration from environment variables and an optional YAML
// file. Environment variables (prefix MPD) are processed first; non-zero file
// values take precedence, matching how operators pin a run's parameters.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("MPD", &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileCfg, err := loadFromFile(configFile)
			if err != nil {
				return nil, apperrors.NewConfigError("failed to load config from file", err)
			}
			cfg = mergeConfigs(*fileCfg, cfg)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigs overlays non-zero file values onto the env-derived config
func mergeConfigs(file, env Config) Config {
	merged := env

	if file.Bands.MinBps != 0 {
		merged.Bands.MinBps = file.Bands.MinBps
	}
	if file.Bands.MaxBps != 0 {
		merged.Bands.MaxBps = file.Bands.MaxBps
	}
	if file.Bands.WidthBps != 0 {
		merged.Bands.WidthBps = file.Bands.WidthBps
	}
	if file.Matching.ToleranceDays != 0 {
		merged.Matching.ToleranceDays = file.Matching.ToleranceDays
	}
	if file.Rates.Unit != "" {
		merged.Rates.Unit = file.Rates.Unit
	}
	if file.Logging.Level != "" {
		merged.Logging.Level = file.Logging.Level
	}
	if file.Logging.Format != "" {
		merged.Logging.Format = file.Logging.Format
	}
	if file.Logging.Output != "" {
		merged.Logging.Output = file.Logging.Output
	}
	if file.Logging.FilePath != "" {
		merged.Logging.FilePath = file.Logging.FilePath
	}
	if file.Paths.DisclosureFile != "" {
		merged.Paths.DisclosureFile = file.Paths.DisclosureFile
	}
	if file.Paths.QuoteFile != "" {
		merged.Paths.QuoteFile = file.Paths.QuoteFile
	}
	if file.Paths.OutputDir != "" {
		merged.Paths.OutputDir = file.Paths.OutputDir
	}
	if len(file.Report.SelectedBands) > 0 {
		merged.Report.SelectedBands = file.Report.SelectedBands
	}

	return merged
}

// validate checks the configuration for consistency
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Bands.MaxBps <= c.Bands.MinBps {
		return fmt.Errorf("band max_bps (%d) must exceed min_bps (%d)", c.Bands.MaxBps, c.Bands.MinBps)
	}
	if c.Bands.MinBps%c.Bands.WidthBps != 0 || c.Bands.MaxBps%c.Bands.WidthBps != 0 {
		return fmt.Errorf("band bounds [%d, %d] must be multiples of width %d",
			c.Bands.MinBps, c.Bands.MaxBps, c.Bands.WidthBps)
	}

	return nil
}
