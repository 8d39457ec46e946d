// ABOUTME: CLI command that runs the full extract, transform, load, report pipeline.
// ABOUTME: Prints the analytics tables and where the outputs were written.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harperreed/habitetl/internal/models"
	"github.com/harperreed/habitetl/internal/pipeline"
	"github.com/harperreed/habitetl/internal/report"
	"github.com/spf13/cobra"
)

var runQuiet bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ETL pipeline",
	Long: `Run the full pipeline once.

The habits, habit_checkmarks, and habit_scores tables are dropped and
rebuilt on every run. Running twice leaves only the second run's rows.

HABIT IDS:

  --mapping derived   ids follow the order of Habits.csv (default)
  --mapping static    ids come from the fixed MeshOS table
                      (Vaping=1 ... Gym=10)

UNMAPPED HABITS:

  Checkmark or score columns whose habit has no id are handled by
  --unmapped-policy:

  drop   discard the records and log their names (default)
  fail   abort the run

LAKE EXPORT:

  --parquet-dir writes habits.parquet, habit_checkmarks.parquet, and
  habit_scores.parquet after the load. With --s3-bucket the files are
  uploaded to s3://<bucket>/<prefix>/<run-id>/.

EXAMPLES:

  habitetl run                                  # CSVs in the current directory
  habitetl run --input-dir ~/exports -q         # Quiet, other directory
  habitetl run --unmapped-policy fail           # Reject unknown habits
  habitetl run --source postgres --postgres-dsn postgres://localhost/meshos
  habitetl run --parquet-dir lake --s3-bucket my-lake`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		src, closeSource, err := cfg.OpenSource(ctx)
		if err != nil {
			return err
		}
		defer closeSource()

		db, err := cfg.OpenWarehouse()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		opts := pipeline.Options{
			Source:      src,
			Store:       db,
			SummaryPath: cfg.SummaryPath,
			Mapping:     models.MappingMode(cfg.Mapping),
			Policy:      models.UnmappedPolicy(cfg.UnmappedPolicy),
			UserID:      cfg.UserID,
			ParquetDir:  cfg.ParquetDir,
			Logger:      logger,
		}

		up, err := cfg.Uploader()
		if err != nil {
			return err
		}
		if up != nil {
			opts.Uploader = up
			if opts.ParquetDir == "" {
				staging, err := os.MkdirTemp("", "habitetl-parquet-*")
				if err != nil {
					return fmt.Errorf("create staging directory: %w", err)
				}
				defer func() { _ = os.RemoveAll(staging) }()
				opts.ParquetDir = staging
			}
		}

		res, err := pipeline.Run(ctx, opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !runQuiet {
			report.RenderTables(out, res.Report)
			fmt.Fprintln(out)
		}

		green := color.New(color.FgGreen)
		faint := color.New(color.Faint)
		_, _ = green.Fprintf(out, "✓ Pipeline complete %s\n", faint.Sprint(res.RunID))
		_, _ = green.Fprintf(out, "✓ Warehouse: %s (%d habits, %d checkmarks, %d scores)\n",
			db.Path(), res.Summary.HabitsCount, res.Summary.CheckmarksCount, res.Summary.ScoresCount)
		_, _ = green.Fprintf(out, "✓ Summary: %s\n", cfg.SummaryPath)
		if res.Summary.TopPerformingHabitName != nil {
			_, _ = green.Fprintf(out, "✓ Top performing habit: %s\n", *res.Summary.TopPerformingHabitName)
		}
		_, _ = green.Fprintf(out, "✓ Total tracking days: %d\n", res.Summary.TotalTrackingDays)
		if res.Dropped.Total() > 0 {
			_, _ = color.New(color.FgYellow).Fprintf(out, "⚠ Dropped %d unmapped records %v\n", res.Dropped.Total(), res.Dropped.Names)
		}
		if cfg.ParquetDir != "" {
			_, _ = green.Fprintf(out, "✓ Parquet: %s\n", cfg.ParquetDir)
		}
		for _, u := range res.Uploads {
			_, _ = green.Fprintf(out, "✓ Uploaded %s\n", u.Location)
		}
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.String("source", "csv", "Input source: csv or postgres")
	f.String("input-dir", ".", "Directory holding the CSV files")
	f.String("habits-file", "Habits.csv", "Habit definitions file")
	f.String("checkmarks-file", "Checkmarks.csv", "Daily checkmarks file")
	f.String("scores-file", "Scores.csv", "Daily scores file")
	f.String("postgres-dsn", "", "PostgreSQL connection string for --source postgres")
	f.String("summary-path", "pipeline_summary.json", "Summary JSON output file")
	f.String("unmapped-policy", "drop", "Unmapped habit policy: drop or fail")
	f.String("mapping", "derived", "Habit id mapping: derived or static")
	f.Int64("user-id", 1, "User id stamped on every row")
	f.String("parquet-dir", "", "Also write Parquet files to this directory")
	f.String("s3-bucket", "", "Upload Parquet files to this S3 bucket")
	f.String("s3-prefix", "habitetl", "S3 key prefix")
	f.String("s3-region", "", "AWS region for the upload")
	f.BoolVarP(&runQuiet, "quiet", "q", false, "Skip the analytics tables")
	rootCmd.AddCommand(runCmd)
}
