// ABOUTME: Analytics query results and the pipeline summary record.
// ABOUTME: Nullable aggregates are pointers so JSON renders them as null.
package models

import "time"

// PerformanceRow is one habit in the performance overview.
type PerformanceRow struct {
	HabitID      int64    `json:"habit_id" yaml:"habit_id" db:"habit_id"`
	Name         string   `json:"name" yaml:"name" db:"name"`
	Color        string   `json:"color" yaml:"color" db:"color"`
	AvgScore     *float64 `json:"avg_score" yaml:"avg_score" db:"avg_score"`
	TotalEntries int64    `json:"total_entries" yaml:"total_entries" db:"total_entries"`
}

// TrendRow is one date of the recent trend.
type TrendRow struct {
	Date              string   `json:"date" yaml:"date" db:"date"`
	PositiveHabitsAvg *float64 `json:"positive_habits_avg" yaml:"positive_habits_avg" db:"positive_habits_avg"`
	VapingScore       *float64 `json:"vaping_score" yaml:"vaping_score" db:"vaping_score"`
}

// CorrelationRow holds the overall averages of the correlated habits.
type CorrelationRow struct {
	AvgCoding *float64 `json:"avg_coding" yaml:"avg_coding" db:"avg_coding"`
	AvgGym    *float64 `json:"avg_gym" yaml:"avg_gym" db:"avg_gym"`
	AvgWalk   *float64 `json:"avg_walk" yaml:"avg_walk" db:"avg_walk"`
}

// Report bundles the three analytics query results.
type Report struct {
	EvaluatedAt time.Time        `json:"evaluated_at" yaml:"evaluated_at"`
	Performance []PerformanceRow `json:"performance" yaml:"performance"`
	Trend       []TrendRow       `json:"trend" yaml:"trend"`
	Correlation CorrelationRow   `json:"correlation" yaml:"correlation"`
}

// Summary is the JSON record written at the end of a run.
type Summary struct {
	ExecutionTimestamp     time.Time `json:"execution_timestamp"`
	HabitsCount            int       `json:"habits_count"`
	CheckmarksCount        int       `json:"checkmarks_count"`
	ScoresCount            int       `json:"scores_count"`
	TopPerformingHabitName *string   `json:"top_performing_habit_name"`
	TopHabitAvgScore       *float64  `json:"top_habit_avg_score"`
	TotalTrackingDays      int       `json:"total_tracking_days"`
}

// UnmappedPolicy decides what happens to records whose habit has no id.
type UnmappedPolicy string

const (
	// UnmappedDrop silently discards unmapped records.
	UnmappedDrop UnmappedPolicy = "drop"
	// UnmappedFail aborts the run on the first unmapped record.
	UnmappedFail UnmappedPolicy = "fail"
)

// IsValidUnmappedPolicy checks if a string names a supported policy.
func IsValidUnmappedPolicy(s string) bool {
	return s == string(UnmappedDrop) || s == string(UnmappedFail)
}
