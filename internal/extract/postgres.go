// ABOUTME: PostgreSQL extraction from the MeshOS habit schema.
// ABOUTME: Long-form checkmarks and scores are pivoted back into wide frames.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/habitetl/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	habitsQuery = `SELECT name, COALESCE(question, ''), COALESCE(color, '')
		FROM habits
		ORDER BY id`

	checkmarksQuery = `SELECT to_char(c.date, 'YYYY-MM-DD'), h.name, c.value::float8
		FROM habit_checkmarks c
		JOIN habits h ON h.id = c.habit_id
		ORDER BY c.date, h.id`

	scoresQuery = `SELECT to_char(s.date, 'YYYY-MM-DD'), h.name, s.score::float8
		FROM habit_scores s
		JOIN habits h ON h.id = s.habit_id
		ORDER BY s.date, h.id`
)

// Querier is the subset of pgxpool.Pool the source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads habits and their daily tables from PostgreSQL.
type PostgresSource struct {
	DB Querier
}

// Compile-time check that PostgresSource implements Source.
var _ Source = (*PostgresSource)(nil)

// OpenPostgres connects a pool and validates it with a ping.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, &models.MissingInputError{Path: "postgres", Err: err}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, &models.MissingInputError{Path: "postgres", Err: err}
	}
	return pool, nil
}

// Name identifies the source in logs.
func (s *PostgresSource) Name() string { return "postgres" }

// Extract reads the habits table and pivots the two daily tables.
func (s *PostgresSource) Extract(ctx context.Context) (*Dataset, error) {
	habits, err := s.readHabits(ctx)
	if err != nil {
		return nil, err
	}
	order := make([]string, len(habits))
	for i, h := range habits {
		order[i] = h.Name
	}

	checkmarks, err := s.readLong(ctx, "habit_checkmarks", checkmarksQuery)
	if err != nil {
		return nil, err
	}
	scores, err := s.readLong(ctx, "habit_scores", scoresQuery)
	if err != nil {
		return nil, err
	}

	return &Dataset{
		Habits:     habits,
		Checkmarks: PivotLong("postgres:habit_checkmarks", order, checkmarks),
		Scores:     PivotLong("postgres:habit_scores", order, scores),
	}, nil
}

func (s *PostgresSource) readHabits(ctx context.Context) ([]HabitRow, error) {
	rows, err := s.DB.Query(ctx, habitsQuery)
	if err != nil {
		return nil, &models.MissingInputError{Path: "postgres:habits", Err: err}
	}
	defer rows.Close()

	var habits []HabitRow
	for rows.Next() {
		var h HabitRow
		if err := rows.Scan(&h.Name, &h.Question, &h.Color); err != nil {
			return nil, &models.DecodeError{Source: "postgres:habits", Row: len(habits) + 1, Err: err}
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.MissingInputError{Path: "postgres:habits", Err: err}
	}
	return habits, nil
}

func (s *PostgresSource) readLong(ctx context.Context, table, query string) ([]LongCell, error) {
	source := "postgres:" + table
	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, &models.MissingInputError{Path: source, Err: err}
	}
	defer rows.Close()

	var cells []LongCell
	for rows.Next() {
		var c LongCell
		if err := rows.Scan(&c.Date, &c.HabitName, &c.Value); err != nil {
			return nil, &models.DecodeError{Source: source, Row: len(cells) + 1, Err: fmt.Errorf("scan: %w", err)}
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.MissingInputError{Path: source, Err: err}
	}
	return cells, nil
}
