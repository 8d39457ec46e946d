// ABOUTME: Replace-load of the transformed tables and read-back for exports.
// ABOUTME: All three tables are dropped, recreated, and filled in one transaction.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/habitetl/internal/models"
	"github.com/jmoiron/sqlx"
)

type habitRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Question  string `db:"question"`
	Color     string `db:"color"`
	UserID    int64  `db:"user_id"`
	CreatedAt string `db:"created_at"`
}

type checkmarkRow struct {
	Date      string          `db:"date"`
	UserID    int64           `db:"user_id"`
	HabitID   int64           `db:"habit_id"`
	HabitName string          `db:"habit_name"`
	Value     sql.NullFloat64 `db:"value"`
}

type scoreRow struct {
	Date      string          `db:"date"`
	UserID    int64           `db:"user_id"`
	HabitID   int64           `db:"habit_id"`
	HabitName string          `db:"habit_name"`
	Score     sql.NullFloat64 `db:"score"`
}

const (
	insertHabit = `INSERT INTO habits (id, name, question, color, user_id, created_at)
		VALUES (:id, :name, :question, :color, :user_id, :created_at)`
	insertCheckmark = `INSERT INTO habit_checkmarks (date, user_id, habit_id, habit_name, value)
		VALUES (:date, :user_id, :habit_id, :habit_name, :value)`
	insertScore = `INSERT INTO habit_scores (date, user_id, habit_id, habit_name, score)
		VALUES (:date, :user_id, :habit_id, :habit_name, :score)`
)

// Counts holds the row count of each warehouse table.
type Counts struct {
	Habits     int `json:"habits" db:"habits"`
	Checkmarks int `json:"checkmarks" db:"checkmarks"`
	Scores     int `json:"scores" db:"scores"`
}

// ReplaceAll drops and recreates the three tables and inserts the given
// rows. Either every table is replaced or none is.
func (d *DB) ReplaceAll(ctx context.Context, habits []models.HabitDefinition, checkmarks []models.CheckmarkRecord, scores []models.ScoreRecord) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return &models.StoreWriteError{Err: fmt.Errorf("begin: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+t.name); err != nil {
			return &models.StoreWriteError{Table: t.name, Err: fmt.Errorf("drop: %w", err)}
		}
		if err := createTable(ctx, tx, t); err != nil {
			return &models.StoreWriteError{Table: t.name, Err: err}
		}
	}

	habitRows := make([]any, len(habits))
	for i, h := range habits {
		habitRows[i] = habitRow{
			ID:        h.ID,
			Name:      h.Name,
			Question:  h.Question,
			Color:     h.Color,
			UserID:    h.UserID,
			CreatedAt: h.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	if err := insertRows(ctx, tx, TableHabits, insertHabit, habitRows); err != nil {
		return err
	}

	checkRows := make([]any, len(checkmarks))
	for i, c := range checkmarks {
		checkRows[i] = checkmarkRow{
			Date:      c.Date.Format(models.DateLayout),
			UserID:    c.UserID,
			HabitID:   c.HabitID,
			HabitName: c.HabitName,
			Value:     nullFloat(c.Value),
		}
	}
	if err := insertRows(ctx, tx, TableCheckmarks, insertCheckmark, checkRows); err != nil {
		return err
	}

	scoreRows := make([]any, len(scores))
	for i, s := range scores {
		scoreRows[i] = scoreRow{
			Date:      s.Date.Format(models.DateLayout),
			UserID:    s.UserID,
			HabitID:   s.HabitID,
			HabitName: s.HabitName,
			Score:     nullFloat(s.Score),
		}
	}
	if err := insertRows(ctx, tx, TableScores, insertScore, scoreRows); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &models.StoreWriteError{Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

func insertRows(ctx context.Context, tx *sqlx.Tx, table, query string, rows []any) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return &models.StoreWriteError{Table: table, Err: fmt.Errorf("prepare: %w", err)}
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, r); err != nil {
			return &models.StoreWriteError{Table: table, Err: fmt.Errorf("insert row %d: %w", i+1, err)}
		}
	}
	return nil
}

// ListHabits returns all habits ordered by id.
func (d *DB) ListHabits(ctx context.Context) ([]models.HabitDefinition, error) {
	var rows []habitRow
	if err := d.db.SelectContext(ctx, &rows, `SELECT id, name, question, color, user_id, created_at FROM habits ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	habits := make([]models.HabitDefinition, len(rows))
	for i, r := range rows {
		created, err := time.Parse(time.RFC3339, r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of habit %d: %w", r.ID, err)
		}
		habits[i] = models.HabitDefinition{
			ID:        r.ID,
			Name:      r.Name,
			Question:  r.Question,
			Color:     r.Color,
			UserID:    r.UserID,
			CreatedAt: created,
		}
	}
	return habits, nil
}

// ListCheckmarks returns all checkmarks ordered by date, then habit id.
func (d *DB) ListCheckmarks(ctx context.Context) ([]models.CheckmarkRecord, error) {
	var rows []checkmarkRow
	if err := d.db.SelectContext(ctx, &rows, `SELECT date, user_id, habit_id, habit_name, value FROM habit_checkmarks ORDER BY date, habit_id`); err != nil {
		return nil, fmt.Errorf("list checkmarks: %w", err)
	}

	out := make([]models.CheckmarkRecord, len(rows))
	for i, r := range rows {
		date, err := time.Parse(models.DateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("parse checkmark date %q: %w", r.Date, err)
		}
		out[i] = models.CheckmarkRecord{
			Date:      date,
			UserID:    r.UserID,
			HabitID:   r.HabitID,
			HabitName: r.HabitName,
			Value:     floatPtr(r.Value),
		}
	}
	return out, nil
}

// ListScores returns all scores ordered by date, then habit id.
func (d *DB) ListScores(ctx context.Context) ([]models.ScoreRecord, error) {
	var rows []scoreRow
	if err := d.db.SelectContext(ctx, &rows, `SELECT date, user_id, habit_id, habit_name, score FROM habit_scores ORDER BY date, habit_id`); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	out := make([]models.ScoreRecord, len(rows))
	for i, r := range rows {
		date, err := time.Parse(models.DateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("parse score date %q: %w", r.Date, err)
		}
		out[i] = models.ScoreRecord{
			Date:      date,
			UserID:    r.UserID,
			HabitID:   r.HabitID,
			HabitName: r.HabitName,
			Score:     floatPtr(r.Score),
		}
	}
	return out, nil
}

// TableCounts returns the number of rows in each warehouse table.
func (d *DB) TableCounts(ctx context.Context) (Counts, error) {
	var c Counts
	err := d.db.GetContext(ctx, &c, `SELECT
		(SELECT COUNT(*) FROM habits) AS habits,
		(SELECT COUNT(*) FROM habit_checkmarks) AS checkmarks,
		(SELECT COUNT(*) FROM habit_scores) AS scores`)
	if err != nil {
		return Counts{}, fmt.Errorf("count tables: %w", err)
	}
	return c, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
