// Package cmd implements the ria command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/ria/internal/config"
	"github.com/papapumpkin/ria/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "ria",
	Short: "Score reviewers and products in a review graph",
	Long: `ria estimates how anomalous each reviewer is and what each product's
true rating is by iteratively refining a bipartite reviewer/product graph.

Datasets are TOML or JSON Lines files; see "ria analyze --help".`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .ria.yaml)")
	pf.BoolP("verbose", "v", false, "debug logging")
	pf.String("variant", "ria", "algorithm variant: ria, mra, one, onesum")
	pf.Float64("alpha", 1, "weight steepness (ria only)")
	pf.Int("workers", 1, "goroutines per refinement phase")
	pf.String("db", "", "SQLite run history path (empty disables history)")
	pf.String("telemetry", "", "append JSONL telemetry events to this file")
	pf.StringP("format", "o", "table", "output format: table, json, yaml, dot")

	bindFlag("verbose", "verbose")
	bindFlag("variant", "variant")
	bindFlag("alpha", "alpha")
	bindFlag("workers", "workers")
	bindFlag("db_path", "db")
	bindFlag("telemetry_path", "telemetry")
	bindFlag("format", "format")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".ria")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("RIA")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// loadConfig loads and validates configuration and builds the logger.
func loadConfig() (config.Config, *log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.New(os.Stderr, logging.Options{Verbose: cfg.Verbose})
	return cfg, logger, nil
}
