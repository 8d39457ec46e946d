// ABOUTME: CLI commands for exporting the warehouse to a data lake.
// ABOUTME: Writes Parquet files and optionally uploads them to S3.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/harperreed/habitetl/internal/export"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export warehouse tables",
}

var exportParquetCmd = &cobra.Command{
	Use:   "parquet",
	Short: "Export tables as Parquet",
	Long: `Export the habits, habit_checkmarks, and habit_scores tables as Parquet.

Files are written to --parquet-dir. With --s3-bucket they are also uploaded
to s3://<bucket>/<prefix>/<export-id>/, where the export id is a fresh
time-ordered UUID.

EXAMPLES:

  habitetl export parquet --parquet-dir lake
  habitetl export parquet --parquet-dir lake --s3-bucket my-lake --s3-prefix meshos
  HABITETL_S3_BUCKET=my-lake habitetl export parquet`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		up, err := cfg.Uploader()
		if err != nil {
			return err
		}

		dir := cfg.ParquetDir
		if dir == "" {
			if up == nil {
				return fmt.Errorf("nothing to do: set --parquet-dir or --s3-bucket")
			}
			staging, err := os.MkdirTemp("", "habitetl-parquet-*")
			if err != nil {
				return fmt.Errorf("create staging directory: %w", err)
			}
			defer func() { _ = os.RemoveAll(staging) }()
			dir = staging
		}

		db, err := cfg.OpenWarehouse()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		files, err := export.ExportWarehouse(ctx, db, dir)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		green := color.New(color.FgGreen)
		for _, f := range files {
			_, _ = green.Fprintf(out, "✓ %s: %d rows → %s\n", f.Table, f.Records, f.Path)
		}

		if up == nil {
			return nil
		}
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate export id: %w", err)
		}
		logger.Info("uploading parquet files", "bucket", up.Bucket, "export", id.String())
		uploads, err := up.UploadFiles(ctx, id.String(), files)
		if err != nil {
			return err
		}
		for _, u := range uploads {
			_, _ = green.Fprintf(out, "✓ Uploaded %s\n", u.Location)
		}
		return nil
	},
}

func init() {
	f := exportParquetCmd.Flags()
	f.String("parquet-dir", "", "Directory for the Parquet files")
	f.String("s3-bucket", "", "Upload the files to this S3 bucket")
	f.String("s3-prefix", "habitetl", "S3 key prefix")
	f.String("s3-region", "", "AWS region for the upload")

	exportCmd.AddCommand(exportParquetCmd)
	rootCmd.AddCommand(exportCmd)
}
