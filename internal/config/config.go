// Package config loads runtime settings from viper. Values come from
// .ria.yaml, RIA_* environment variables and bound CLI flags, in viper's
// usual precedence.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/papapumpkin/ria/internal/analysis"
	"github.com/papapumpkin/ria/internal/bipartite"
	"github.com/papapumpkin/ria/internal/report"
)

// ErrInvalid is wrapped by every validation failure from Load.
var ErrInvalid = errors.New("config: invalid")

// Config holds all runtime configuration for an analysis session.
type Config struct {
	Variant       string  `mapstructure:"variant"`
	Alpha         float64 `mapstructure:"alpha"`
	MaxIterations int     `mapstructure:"max_iterations"`
	Epsilon       float64 `mapstructure:"epsilon"`
	Workers       int     `mapstructure:"workers"`
	DBPath        string  `mapstructure:"db_path"`
	Format        string  `mapstructure:"format"`
	Top           int     `mapstructure:"top"`
	TelemetryPath string  `mapstructure:"telemetry_path"`
	Verbose       bool    `mapstructure:"verbose"`
}

// SetDefaults registers built-in defaults with viper.
func SetDefaults() {
	defaults := analysis.DefaultOptions()
	viper.SetDefault("variant", bipartite.VariantRIA.String())
	viper.SetDefault("alpha", 1.0)
	viper.SetDefault("max_iterations", defaults.MaxIterations)
	viper.SetDefault("epsilon", defaults.Epsilon)
	viper.SetDefault("workers", 1)
	viper.SetDefault("db_path", "")
	viper.SetDefault("format", string(report.FormatTable))
	viper.SetDefault("top", 0)
	viper.SetDefault("telemetry_path", "")
	viper.SetDefault("verbose", false)
}

// Load reads configuration from viper, applying defaults for anything not
// set, and validates the result.
func Load() (Config, error) {
	SetDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if _, err := bipartite.ParseVariant(c.Variant); err != nil {
		return fmt.Errorf("%w: variant: %w", ErrInvalid, err)
	}
	if c.Alpha <= 0 {
		return fmt.Errorf("%w: alpha must be positive, got %g", ErrInvalid, c.Alpha)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: max_iterations must be positive, got %d", ErrInvalid, c.MaxIterations)
	}
	if c.Epsilon < 0 {
		return fmt.Errorf("%w: epsilon must not be negative, got %g", ErrInvalid, c.Epsilon)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	}
	if c.Top < 0 {
		return fmt.Errorf("%w: top must not be negative, got %d", ErrInvalid, c.Top)
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("%w: format: %w", ErrInvalid, err)
	}
	return nil
}

// NewGraph returns an empty graph for the configured variant, alpha and
// worker count.
func (c Config) NewGraph() *bipartite.Graph {
	v, _ := bipartite.ParseVariant(c.Variant)
	alpha := c.Alpha
	if v != bipartite.VariantRIA {
		alpha = 1
	}
	return bipartite.New(bipartite.Config{
		Variant: v,
		Alpha:   alpha,
		Workers: c.Workers,
	})
}

// AnalysisOptions returns the convergence loop settings.
func (c Config) AnalysisOptions() analysis.Options {
	return analysis.Options{
		MaxIterations: c.MaxIterations,
		Epsilon:       c.Epsilon,
	}
}

// OutputFormat returns the validated output format.
func (c Config) OutputFormat() report.Format {
	f, _ := report.ParseFormat(c.Format)
	return f
}
