// ABOUTME: Root Cobra command for habitetl CLI.
// ABOUTME: Loads configuration and sets up logging via PersistentPreRunE.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/harperreed/habitetl/internal/config"
	"github.com/harperreed/habitetl/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const skipConfigAnnotation = "habitetl/skip-config"

var (
	configPath string
	cfg        *config.Config
	logger     *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "habitetl",
	Short: "Habit tracking ETL pipeline",
	Long: `Habitetl loads a habit tracker export into a SQLite warehouse and reports on it.

WHAT IT DOES:

  1. Extract   Habits.csv, Checkmarks.csv, and Scores.csv (or PostgreSQL)
  2. Transform assign habit ids, reshape daily tables from wide to long
  3. Load      replace the habits, habit_checkmarks, and habit_scores tables
  4. Report    performance overview, 7-day trend, correlation inputs,
               and a pipeline_summary.json record

QUICK START:

  $ habitetl run                          # Run on CSVs in the current directory
  $ habitetl run --input-dir ~/exports    # Run on CSVs elsewhere
  $ habitetl report --format json         # Re-query an existing warehouse
  $ habitetl export parquet --parquet-dir lake/

CONFIGURATION:

  Settings come from flags, then HABITETL_* environment variables, then
  ~/.config/habitetl/config.yaml, then defaults.

  $ habitetl config init                  # Write a default config file
  $ habitetl config show                  # Print the effective settings

MCP INTEGRATION:

  Run 'habitetl mcp' to serve the warehouse to MCP-compatible assistants:

  {
    "mcpServers": {
      "habitetl": { "command": "habitetl", "args": ["mcp"] }
    }
  }`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Annotations[skipConfigAnnotation] == "true" {
			return nil
		}

		v := config.NewViper()
		if err := bindFlags(v, cmd.Flags()); err != nil {
			return err
		}
		c, err := config.Load(v, configPath)
		if err != nil {
			return err
		}
		l, err := logging.New(cmd.ErrOrStderr(), c.LogLevel)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/habitetl/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("warehouse-path", "meshos_warehouse.db", "SQLite warehouse file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// bindFlags binds every flag whose dashed name matches a config key, so an
// explicitly set flag overrides env and file values.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !isConfigKey(key) || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(key, f)
	})
	return bindErr
}

func isConfigKey(key string) bool {
	switch key {
	case config.KeySource, config.KeyInputDir, config.KeyHabitsFile, config.KeyCheckmarksFile,
		config.KeyScoresFile, config.KeyPostgresDSN, config.KeyWarehousePath, config.KeySummaryPath,
		config.KeyParquetDir, config.KeyS3Bucket, config.KeyS3Prefix, config.KeyS3Region,
		config.KeyUnmappedPolicy, config.KeyMapping, config.KeyUserID, config.KeyLogLevel:
		return true
	}
	return false
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
