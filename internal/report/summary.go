// ABOUTME: Builds the end-of-run summary and writes it to disk atomically.
// ABOUTME: The file is replaced by rename so readers never see a partial write.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harperreed/habitetl/internal/models"
)

// DefaultSummaryPath is the summary file used when none is configured.
const DefaultSummaryPath = "pipeline_summary.json"

// Counts are the transformed table sizes reported in the summary.
type Counts struct {
	Habits       int
	Checkmarks   int
	Scores       int
	TrackingDays int
}

// BuildSummary assembles the summary record. The top habit comes from the
// first performance row; with no habits both top fields stay null.
func BuildSummary(executedAt time.Time, counts Counts, rep *models.Report) models.Summary {
	s := models.Summary{
		ExecutionTimestamp: executedAt,
		HabitsCount:        counts.Habits,
		CheckmarksCount:    counts.Checkmarks,
		ScoresCount:        counts.Scores,
		TotalTrackingDays:  counts.TrackingDays,
	}
	if rep != nil && len(rep.Performance) > 0 {
		top := rep.Performance[0]
		name := top.Name
		s.TopPerformingHabitName = &name
		if top.AvgScore != nil {
			avg := *top.AvgScore
			s.TopHabitAvgScore = &avg
		}
	}
	return s
}

// WriteSummary writes s as indented JSON to path via a temp file, fsync,
// and rename. The file is created with 0600 permissions.
func WriteSummary(path string, s models.Summary) error {
	if path == "" {
		path = DefaultSummaryPath
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create summary directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".summary-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write summary: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// ReadSummary loads a summary written by WriteSummary.
func ReadSummary(path string) (models.Summary, error) {
	var s models.Summary
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read summary: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse summary: %w", err)
	}
	return s, nil
}
