// ABOUTME: Runs extract, transform, load, and report as one sequential pipeline.
// ABOUTME: Each run is tagged with a UUIDv7 run id used in logs and lake keys.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harperreed/habitetl/internal/export"
	"github.com/harperreed/habitetl/internal/extract"
	"github.com/harperreed/habitetl/internal/models"
	"github.com/harperreed/habitetl/internal/report"
	"github.com/harperreed/habitetl/internal/transform"
)

// Store is the warehouse the pipeline loads into and queries.
type Store interface {
	ReplaceAll(ctx context.Context, habits []models.HabitDefinition, checkmarks []models.CheckmarkRecord, scores []models.ScoreRecord) error
	Report(ctx context.Context, evalTime time.Time) (*models.Report, error)
}

// Uploader ships exported files somewhere durable.
type Uploader interface {
	UploadFiles(ctx context.Context, runID string, files []export.File) ([]export.Upload, error)
}

// Options configures a run. Source and Store are required.
type Options struct {
	Source extract.Source
	Store  Store

	// SummaryPath is where the summary JSON goes; empty means the default.
	SummaryPath string

	Mapping models.MappingMode
	Policy  models.UnmappedPolicy
	UserID  int64

	// ParquetDir enables the Parquet export when set.
	ParquetDir string
	// Uploader, when set with ParquetDir, receives the exported files.
	Uploader Uploader

	// Now supplies the batch time; defaults to time.Now.
	Now    func() time.Time
	Logger *log.Logger
}

// Result describes a completed run.
type Result struct {
	RunID   string
	Summary models.Summary
	Report  *models.Report
	Dropped transform.DropStats
	Files   []export.File
	Uploads []export.Upload
}

// Run executes the pipeline once. Any error aborts the run. The summary is
// written last, after the load, the queries, and any lake export succeeded,
// so a failed export leaves the replaced warehouse but no new summary.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Source == nil || opts.Store == nil {
		return nil, fmt.Errorf("pipeline: source and store are required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	batchTime := now().UTC()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	runID := id.String()

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.With("run", runID)

	logger.Info("extract", "source", opts.Source.Name())
	ds, err := opts.Source.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	logger.Info("extracted",
		"habits", len(ds.Habits),
		"checkmark_days", ds.Checkmarks.Len(),
		"score_days", ds.Scores.Len())

	tr := transform.New(batchTime)
	if opts.Mapping != "" {
		tr.Mapping = opts.Mapping
	}
	if opts.Policy != "" {
		tr.Policy = opts.Policy
	}
	if opts.UserID != 0 {
		tr.UserID = opts.UserID
	}
	res, err := tr.Transform(ds)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	logger.Info("transformed",
		"habits", len(res.Habits),
		"checkmarks", len(res.Checkmarks),
		"scores", len(res.Scores),
		"mapping", tr.Mapping)
	if res.Dropped.Total() > 0 {
		logger.Warn("dropped unmapped records",
			"checkmarks", res.Dropped.Checkmarks,
			"scores", res.Dropped.Scores,
			"names", res.Dropped.Names)
	}

	if err := opts.Store.ReplaceAll(ctx, res.Habits, res.Checkmarks, res.Scores); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	logger.Info("loaded warehouse")

	rep, err := opts.Store.Report(ctx, batchTime)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}

	summary := report.BuildSummary(batchTime, report.Counts{
		Habits:       len(res.Habits),
		Checkmarks:   len(res.Checkmarks),
		Scores:       len(res.Scores),
		TrackingDays: res.TrackingDays,
	}, rep)
	out := &Result{RunID: runID, Summary: summary, Report: rep, Dropped: res.Dropped}

	if opts.ParquetDir != "" {
		files, err := export.WriteParquet(opts.ParquetDir, res.Habits, res.Checkmarks, res.Scores)
		if err != nil {
			return nil, err
		}
		out.Files = files
		logger.Info("exported parquet", "dir", opts.ParquetDir, "files", len(files))

		if opts.Uploader != nil {
			uploads, err := opts.Uploader.UploadFiles(ctx, runID, files)
			if err != nil {
				return nil, err
			}
			out.Uploads = uploads
			logger.Info("uploaded parquet", "objects", len(uploads))
		}
	}

	if err := report.WriteSummary(opts.SummaryPath, summary); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}
	logger.Info("wrote summary", "path", summaryPath(opts.SummaryPath))

	return out, nil
}

func summaryPath(p string) string {
	if p == "" {
		return report.DefaultSummaryPath
	}
	return p
}
