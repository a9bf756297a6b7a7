package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "SALES_REPORT"

// Flag names shared by the CLI and Load
const (
	FlagInput     = "input"
	FlagOutputDir = "output-dir"
	FlagTitle     = "title"
	FlagLogLevel  = "log-level"
	FlagDB        = "db"
)

type Config struct {
	Input     string        `mapstructure:"input" validate:"required"`
	OutputDir string        `mapstructure:"output_dir" validate:"required"`
	Title     string        `mapstructure:"title" validate:"required"`
	Currency  string        `mapstructure:"currency" validate:"required,max=4"`
	LogLevel  string        `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	Chart     ChartConfig   `mapstructure:"chart"`
	Archive   ArchiveConfig `mapstructure:"archive"`
}

type ChartConfig struct {
	WidthInches  float64 `mapstructure:"width_inches" validate:"gt=0,lte=40"`
	HeightInches float64 `mapstructure:"height_inches" validate:"gt=0,lte=40"`
}

// ArchiveConfig enables the DuckDB run archive when DBPath is set
type ArchiveConfig struct {
	DBPath string `mapstructure:"db_path"`
}

var flagKeys = map[string]string{
	FlagInput:     "input",
	FlagOutputDir: "output_dir",
	FlagTitle:     "title",
	FlagLogLevel:  "log_level",
	FlagDB:        "archive.db_path",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input", "sales_data.csv")
	v.SetDefault("output_dir", ".")
	v.SetDefault("title", "Sales Report")
	v.SetDefault("currency", "$")
	v.SetDefault("log_level", "info")
	v.SetDefault("chart.width_inches", 8.0)
	v.SetDefault("chart.height_inches", 6.0)
	v.SetDefault("archive.db_path", "")
}

// RegisterFlags declares the flags Load knows how to bind
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagInput, "i", "sales_data.csv", "Sales source file (.csv or .xlsx)")
	fs.StringP(FlagOutputDir, "o", ".", "Directory the report is written to")
	fs.String(FlagTitle, "Sales Report", "Report title")
	fs.String(FlagLogLevel, "info", "Log level (trace, debug, info, warn, error)")
	fs.String(FlagDB, "", "DuckDB file archiving every run; empty disables the archive")
}

// LoadConfig resolves the configuration from, lowest to highest precedence:
// defaults, the optional YAML file at path, SALES_REPORT_* environment
// variables and flags explicitly set on fs.
func LoadConfig(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
