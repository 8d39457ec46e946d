// ABOUTME: Habit definition and long-form checkmark/score records.
// ABOUTME: These are the rows the transformer produces and the warehouse stores.
package models

import "time"

// DefaultUserID is the constant owner attached to every row.
const DefaultUserID int64 = 1

// HabitDefinition is one row of the habits table.
type HabitDefinition struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Question  string    `json:"question" yaml:"question"`
	Color     string    `json:"color" yaml:"color"`
	UserID    int64     `json:"user_id" yaml:"user_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// CheckmarkRecord is one (date, habit) cell of the checkmarks table in long form.
type CheckmarkRecord struct {
	Date      time.Time `json:"date"`
	UserID    int64     `json:"user_id"`
	HabitID   int64     `json:"habit_id"`
	HabitName string    `json:"habit_name"`
	Value     *float64  `json:"value"`
}

// ScoreRecord is one (date, habit) cell of the scores table in long form.
type ScoreRecord struct {
	Date      time.Time `json:"date"`
	UserID    int64     `json:"user_id"`
	HabitID   int64     `json:"habit_id"`
	HabitName string    `json:"habit_name"`
	Score     *float64  `json:"score"`
}

// DateLayout is the calendar-date format used in the warehouse and exports.
const DateLayout = "2006-01-02"

// CalendarDate truncates t to midnight UTC of its calendar day.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
