// ABOUTME: CLI command for re-running the analytics queries on an existing warehouse.
// ABOUTME: Renders the report as tables, JSON, or YAML without touching the inputs.
package main

import (
	"fmt"
	"time"

	"github.com/harperreed/habitetl/internal/models"
	"github.com/harperreed/habitetl/internal/report"
	"github.com/spf13/cobra"
)

var (
	reportFormat string
	reportAsOf   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Query the warehouse",
	Long: `Run the three analytics queries against the current warehouse.

QUERIES:

  performance   mean score and checkmark count per habit, best first
  trend         daily positive-habit mean and vaping score, last 7 days
  correlation   overall mean score of Coding, Gym, and Walk

FORMATS:

  table   colored tables (default)
  json    indented JSON
  yaml    YAML

EXAMPLES:

  habitetl report                          # Tables as of today
  habitetl report --format json            # Machine-readable
  habitetl report --as-of 2025-08-05       # Trend window ending on a fixed day`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !report.IsValidFormat(reportFormat) {
			return fmt.Errorf("unknown format: %s (use table, json, or yaml)", reportFormat)
		}

		evalTime := time.Now()
		if reportAsOf != "" {
			t, err := time.Parse(models.DateLayout, reportAsOf)
			if err != nil {
				return fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", reportAsOf)
			}
			evalTime = t
		}

		db, err := cfg.OpenWarehouse()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		rep, err := db.Report(cmd.Context(), evalTime)
		if err != nil {
			return err
		}
		return report.Write(cmd.OutOrStdout(), rep, report.Format(reportFormat))
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "table", "Output format: table, json, yaml")
	reportCmd.Flags().StringVar(&reportAsOf, "as-of", "", "Evaluate the trend window as of this date (YYYY-MM-DD)")
	rootCmd.AddCommand(reportCmd)
}
