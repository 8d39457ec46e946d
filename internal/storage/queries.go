// ABOUTME: The three fixed analytics queries over the warehouse.
// ABOUTME: Performance overview, recent trend window, and correlation inputs.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/habitetl/internal/models"
)

// Habit names the trend and correlation queries single out.
const (
	VapingHabit = "Vaping"
	CodingHabit = "Coding"
	GymHabit    = "Gym"
	WalkHabit   = "Walk"
)

// TrendWindowDays is the length of the trailing trend window.
const TrendWindowDays = 7

// Aggregates are computed in subqueries so the two joins cannot multiply rows.
const performanceQuery = `SELECT
		h.id AS habit_id,
		h.name AS name,
		h.color AS color,
		s.avg_score AS avg_score,
		COALESCE(c.total_entries, 0) AS total_entries
	FROM habits h
	LEFT JOIN (
		SELECT habit_id, AVG(score) AS avg_score FROM habit_scores GROUP BY habit_id
	) s ON s.habit_id = h.id
	LEFT JOIN (
		SELECT habit_id, COUNT(value) AS total_entries FROM habit_checkmarks GROUP BY habit_id
	) c ON c.habit_id = h.id
	ORDER BY s.avg_score IS NULL, s.avg_score DESC, h.id ASC`

const trendQuery = `SELECT
		date,
		AVG(CASE WHEN habit_name <> ? THEN score END) AS positive_habits_avg,
		AVG(CASE WHEN habit_name = ? THEN score END) AS vaping_score
	FROM habit_scores
	WHERE date >= date(?, ?) AND date <= date(?)
	GROUP BY date
	ORDER BY date DESC`

const correlationQuery = `SELECT
		(SELECT AVG(score) FROM habit_scores WHERE habit_name = ?) AS avg_coding,
		(SELECT AVG(score) FROM habit_scores WHERE habit_name = ?) AS avg_gym,
		(SELECT AVG(score) FROM habit_scores WHERE habit_name = ?) AS avg_walk`

// PerformanceOverview returns every habit with its mean score and number of
// non-null checkmarks, best first. Habits without scores sort last.
func (d *DB) PerformanceOverview(ctx context.Context) ([]models.PerformanceRow, error) {
	rows := []models.PerformanceRow{}
	if err := d.db.SelectContext(ctx, &rows, performanceQuery); err != nil {
		return nil, fmt.Errorf("performance overview: %w", err)
	}
	return rows, nil
}

// RecentTrend returns per-date score averages for the trailing window ending
// on the calendar date of evalTime, newest first. Dates without scores are
// absent.
func (d *DB) RecentTrend(ctx context.Context, evalTime time.Time) ([]models.TrendRow, error) {
	day := models.CalendarDate(evalTime).Format(models.DateLayout)
	offset := fmt.Sprintf("-%d days", TrendWindowDays)

	rows := []models.TrendRow{}
	if err := d.db.SelectContext(ctx, &rows, trendQuery, VapingHabit, VapingHabit, day, offset, day); err != nil {
		return nil, fmt.Errorf("recent trend: %w", err)
	}
	return rows, nil
}

// CorrelationInputs returns the overall mean score of Coding, Gym, and Walk.
// The result is always a single row; absent habits yield nulls.
func (d *DB) CorrelationInputs(ctx context.Context) (models.CorrelationRow, error) {
	var row models.CorrelationRow
	if err := d.db.GetContext(ctx, &row, correlationQuery, CodingHabit, GymHabit, WalkHabit); err != nil {
		return models.CorrelationRow{}, fmt.Errorf("correlation inputs: %w", err)
	}
	return row, nil
}

// Report runs the three analytics queries.
func (d *DB) Report(ctx context.Context, evalTime time.Time) (*models.Report, error) {
	perf, err := d.PerformanceOverview(ctx)
	if err != nil {
		return nil, err
	}
	trend, err := d.RecentTrend(ctx, evalTime)
	if err != nil {
		return nil, err
	}
	corr, err := d.CorrelationInputs(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Report{
		EvaluatedAt: evalTime,
		Performance: perf,
		Trend:       trend,
		Correlation: corr,
	}, nil
}
