// ABOUTME: Warehouse schema definition and initialization.
// ABOUTME: Defines the habits, habit_checkmarks, and habit_scores tables.
package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Warehouse table names.
const (
	TableHabits     = "habits"
	TableCheckmarks = "habit_checkmarks"
	TableScores     = "habit_scores"
)

type table struct {
	name    string
	create  string
	indexes []string
}

// tables lists the warehouse tables in load order.
var tables = []table{
	{
		name: TableHabits,
		create: `CREATE TABLE IF NOT EXISTS habits (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		question TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		user_id INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`,
	},
	{
		name: TableCheckmarks,
		create: `CREATE TABLE IF NOT EXISTS habit_checkmarks (
		date TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		habit_id INTEGER NOT NULL,
		habit_name TEXT NOT NULL,
		value REAL
	)`,
		indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_habit_checkmarks_habit ON habit_checkmarks(habit_id)`,
			`CREATE INDEX IF NOT EXISTS idx_habit_checkmarks_date ON habit_checkmarks(date DESC)`,
		},
	},
	{
		name: TableScores,
		create: `CREATE TABLE IF NOT EXISTS habit_scores (
		date TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		habit_id INTEGER NOT NULL,
		habit_name TEXT NOT NULL,
		score REAL
	)`,
		indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_habit_scores_habit ON habit_scores(habit_id)`,
			`CREATE INDEX IF NOT EXISTS idx_habit_scores_date ON habit_scores(date DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_habit_scores_name ON habit_scores(habit_name)`,
		},
	},
}

// initSchema creates any missing tables.
func (d *DB) initSchema() error {
	for _, t := range tables {
		if err := createTable(context.Background(), d.db, t); err != nil {
			return err
		}
	}
	return nil
}

func createTable(ctx context.Context, ex sqlx.ExecerContext, t table) error {
	if _, err := ex.ExecContext(ctx, t.create); err != nil {
		return fmt.Errorf("create %s: %w", t.name, err)
	}
	for _, idx := range t.indexes {
		if _, err := ex.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("index %s: %w", t.name, err)
		}
	}
	return nil
}
