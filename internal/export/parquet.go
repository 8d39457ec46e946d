// ABOUTME: Writes the warehouse tables as SNAPPY-compressed Parquet files.
// ABOUTME: One file per table, named after the table, in a target directory.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harperreed/habitetl/internal/models"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

const parallelism = 4

// Warehouse is the read side of the store the exporter needs.
type Warehouse interface {
	ListHabits(ctx context.Context) ([]models.HabitDefinition, error)
	ListCheckmarks(ctx context.Context) ([]models.CheckmarkRecord, error)
	ListScores(ctx context.Context) ([]models.ScoreRecord, error)
}

// File describes one written Parquet file.
type File struct {
	Table   string `json:"table"`
	Path    string `json:"path"`
	Records int    `json:"records"`
}

// HabitRecord is the Parquet layout of the habits table.
type HabitRecord struct {
	ID        int64  `parquet:"name=id, type=INT64"`
	Name      string `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Question  string `parquet:"name=question, type=BYTE_ARRAY, convertedtype=UTF8"`
	Color     string `parquet:"name=color, type=BYTE_ARRAY, convertedtype=UTF8"`
	UserID    int64  `parquet:"name=user_id, type=INT64"`
	CreatedAt string `parquet:"name=created_at, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// CheckmarkRecord is the Parquet layout of the habit_checkmarks table.
type CheckmarkRecord struct {
	Date      string   `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	UserID    int64    `parquet:"name=user_id, type=INT64"`
	HabitID   int64    `parquet:"name=habit_id, type=INT64"`
	HabitName string   `parquet:"name=habit_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Value     *float64 `parquet:"name=value, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// ScoreRecord is the Parquet layout of the habit_scores table.
type ScoreRecord struct {
	Date      string   `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	UserID    int64    `parquet:"name=user_id, type=INT64"`
	HabitID   int64    `parquet:"name=habit_id, type=INT64"`
	HabitName string   `parquet:"name=habit_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Score     *float64 `parquet:"name=score, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// ExportWarehouse reads every table from w and writes it to dir.
func ExportWarehouse(ctx context.Context, w Warehouse, dir string) ([]File, error) {
	habits, err := w.ListHabits(ctx)
	if err != nil {
		return nil, err
	}
	checkmarks, err := w.ListCheckmarks(ctx)
	if err != nil {
		return nil, err
	}
	scores, err := w.ListScores(ctx)
	if err != nil {
		return nil, err
	}
	return WriteParquet(dir, habits, checkmarks, scores)
}

// WriteParquet writes habits.parquet, habit_checkmarks.parquet, and
// habit_scores.parquet into dir.
func WriteParquet(dir string, habits []models.HabitDefinition, checkmarks []models.CheckmarkRecord, scores []models.ScoreRecord) ([]File, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	habitRows := make([]any, len(habits))
	for i, h := range habits {
		habitRows[i] = HabitRecord{
			ID:        h.ID,
			Name:      h.Name,
			Question:  h.Question,
			Color:     h.Color,
			UserID:    h.UserID,
			CreatedAt: h.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	checkRows := make([]any, len(checkmarks))
	for i, c := range checkmarks {
		checkRows[i] = CheckmarkRecord{
			Date:      c.Date.Format(models.DateLayout),
			UserID:    c.UserID,
			HabitID:   c.HabitID,
			HabitName: c.HabitName,
			Value:     c.Value,
		}
	}

	scoreRows := make([]any, len(scores))
	for i, s := range scores {
		scoreRows[i] = ScoreRecord{
			Date:      s.Date.Format(models.DateLayout),
			UserID:    s.UserID,
			HabitID:   s.HabitID,
			HabitName: s.HabitName,
			Score:     s.Score,
		}
	}

	tables := []struct {
		name   string
		schema any
		rows   []any
	}{
		{"habits", new(HabitRecord), habitRows},
		{"habit_checkmarks", new(CheckmarkRecord), checkRows},
		{"habit_scores", new(ScoreRecord), scoreRows},
	}

	files := make([]File, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, t.name+".parquet")
		if err := writeFile(path, t.schema, t.rows); err != nil {
			return nil, fmt.Errorf("export %s: %w", t.name, err)
		}
		files = append(files, File{Table: t.name, Path: path, Records: len(t.rows)})
	}
	return files, nil
}

func writeFile(path string, schema any, rows []any) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create local file writer: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, schema, parallelism)
	if err != nil {
		_ = fw.Close()
		_ = os.Remove(path)
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, r := range rows {
		if err := pw.Write(r); err != nil {
			_ = fw.Close()
			_ = os.Remove(path)
			return fmt.Errorf("write record %d: %w", i+1, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		_ = os.Remove(path)
		return fmt.Errorf("finalize parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close parquet file: %w", err)
	}
	return nil
}
