package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/wegman-software/geoplaces/internal/config"
	"github.com/wegman-software/geoplaces/internal/logger"
)

// envPrefix prefixes environment variables that provide flag defaults
const envPrefix = "GEOPLACES_"

var (
	cfg             = config.DefaultConfig()
	verbose         bool
	logFile         string
	envFile         string
	metricsInterval time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "geoplaces",
	Short: "Extract and sample point datasets from OSM data",
	Long: `geoplaces turns an OpenStreetMap PBF file into compact binary point
datasets for location games and similar consumers.

Features:
  - Brand and tag filtered points of interest (nodes and building ways)
  - Points sampled along the road network, weighted by road length
  - Road samples restricted to administrative boundaries and regions
  - Binary (8 bytes per point) or Parquet output

Flags can also be set from GEOPLACES_* environment variables or a .env
file, e.g. GEOPLACES_OUTPUT_DIR=/data.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// a missing default .env is fine, an explicit one must exist
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return fmt.Errorf("failed to load env file: %w", err)
		}
		if err := applyEnv(cmd.Flags()); err != nil {
			return err
		}

		cfg.Verbose = verbose
		cfg.LogFile = logFile
		cfg.MetricsInterval = metricsInterval

		if logFile != "" {
			logger.InitWithFile(verbose, logFile)
		} else {
			logger.Init(verbose)
		}
		return nil
	},
}

func Execute() error {
	defer logger.Sync()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir, "Directory for output files")
	rootCmd.PersistentFlags().IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "Number of parallel workers")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file with GEOPLACES_* defaults")

	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file for persistent logging (JSON format)")
	rootCmd.PersistentFlags().DurationVar(&metricsInterval, "metrics-interval", 0, "Interval for system metrics logging, 0 disables (e.g., 10s, 1m)")
}

// applyEnv sets every flag not given on the command line from its
// GEOPLACES_* variable, e.g. --output-dir from GEOPLACES_OUTPUT_DIR. Flags
// set this way count as changed.
func applyEnv(flags *pflag.FlagSet) error {
	var firstErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || firstErr != nil {
			return
		}
		name := envName(f.Name)
		value, ok := os.LookupEnv(name)
		if !ok {
			return
		}
		if err := flags.Set(f.Name, value); err != nil {
			firstErr = fmt.Errorf("invalid %s=%q: %w", name, value, err)
		}
	})
	return firstErr
}

func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func exitWithError(msg string, err error) {
	log := logger.Get()
	if err != nil {
		log.Error(msg, zap.Error(err))
	} else {
		log.Error(msg)
	}
	logger.Sync()
	os.Exit(1)
}
