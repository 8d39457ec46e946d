// ABOUTME: Turns an extracted dataset into warehouse-ready habits and long records.
// ABOUTME: Assigns habit ids, melts wide frames, and resolves names under a policy.
package transform

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/habitetl/internal/extract"
	"github.com/harperreed/habitetl/internal/models"
)

// Transformer holds the per-run settings of the transform step.
type Transformer struct {
	// BatchTime is stamped on every habit as created_at.
	BatchTime time.Time
	UserID    int64
	Mapping   models.MappingMode
	Policy    models.UnmappedPolicy
}

// New returns a Transformer with the default mapping and policy.
func New(batchTime time.Time) *Transformer {
	return &Transformer{
		BatchTime: batchTime,
		UserID:    models.DefaultUserID,
		Mapping:   models.MappingDerived,
		Policy:    models.UnmappedDrop,
	}
}

// DropStats counts records discarded because their habit name had no id.
type DropStats struct {
	Checkmarks int
	Scores     int
	// Names lists each distinct unmapped name once, sorted.
	Names []string
}

// Total returns the number of dropped records across both tables.
func (d DropStats) Total() int { return d.Checkmarks + d.Scores }

// Result is the output of a transform.
type Result struct {
	Habits     []models.HabitDefinition
	Checkmarks []models.CheckmarkRecord
	Scores     []models.ScoreRecord
	// TrackingDays is the number of rows in the wide checkmarks source.
	TrackingDays int
	Dropped      DropStats
}

// AssignHabits gives habits dense ids 1..n in source order and stamps the
// shared user id and batch time. Text fields are trimmed so names match the
// trimmed wide headers.
func AssignHabits(rows []extract.HabitRow, userID int64, batchTime time.Time) []models.HabitDefinition {
	habits := make([]models.HabitDefinition, len(rows))
	for i, r := range rows {
		habits[i] = models.HabitDefinition{
			ID:        int64(i + 1),
			Name:      strings.TrimSpace(r.Name),
			Question:  strings.TrimSpace(r.Question),
			Color:     strings.TrimSpace(r.Color),
			UserID:    userID,
			CreatedAt: batchTime,
		}
	}
	return habits
}

// HabitMap returns the name to id lookup for the configured mapping mode.
func (t *Transformer) HabitMap(habits []models.HabitDefinition) (models.HabitMap, error) {
	switch t.Mapping {
	case models.MappingStatic:
		return models.StaticHabitMap(), nil
	case models.MappingDerived, "":
		return models.DeriveHabitMap(habits)
	default:
		return nil, fmt.Errorf("unknown mapping mode %q", t.Mapping)
	}
}

// Transform runs every transform stage over ds.
func (t *Transformer) Transform(ds *extract.Dataset) (*Result, error) {
	if ds == nil {
		return nil, fmt.Errorf("transform: nil dataset")
	}
	userID := t.UserID
	if userID == 0 {
		userID = models.DefaultUserID
	}

	habits := AssignHabits(ds.Habits, userID, t.BatchTime)
	lookup, err := t.HabitMap(habits)
	if err != nil {
		return nil, fmt.Errorf("transform habits: %w", err)
	}

	checkRows, err := Melt(ds.Checkmarks)
	if err != nil {
		return nil, err
	}
	scoreRows, err := Melt(ds.Scores)
	if err != nil {
		return nil, err
	}

	unmapped := make(map[string]struct{})
	res := &Result{Habits: habits, TrackingDays: ds.Checkmarks.Len()}

	checkmarks, dropped, err := t.resolve("checkmarks", checkRows, lookup, unmapped)
	if err != nil {
		return nil, err
	}
	res.Dropped.Checkmarks = dropped
	res.Checkmarks = make([]models.CheckmarkRecord, len(checkmarks))
	for i, r := range checkmarks {
		res.Checkmarks[i] = models.CheckmarkRecord{
			Date:      r.row.Date,
			UserID:    userID,
			HabitID:   r.id,
			HabitName: r.row.HabitName,
			Value:     r.row.Value,
		}
	}

	scores, dropped, err := t.resolve("scores", scoreRows, lookup, unmapped)
	if err != nil {
		return nil, err
	}
	res.Dropped.Scores = dropped
	res.Scores = make([]models.ScoreRecord, len(scores))
	for i, r := range scores {
		res.Scores[i] = models.ScoreRecord{
			Date:      r.row.Date,
			UserID:    userID,
			HabitID:   r.id,
			HabitName: r.row.HabitName,
			Score:     r.row.Value,
		}
	}

	for name := range unmapped {
		res.Dropped.Names = append(res.Dropped.Names, name)
	}
	sort.Strings(res.Dropped.Names)
	return res, nil
}

type resolved struct {
	row LongRow
	id  int64
}

// resolve attaches habit ids to rows. Under the drop policy unmapped rows
// are discarded and their names collected; under fail the first one aborts.
func (t *Transformer) resolve(source string, rows []LongRow, lookup models.HabitMap, unmapped map[string]struct{}) ([]resolved, int, error) {
	out := make([]resolved, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		id, ok := lookup.Lookup(r.HabitName)
		if !ok {
			if t.Policy == models.UnmappedFail {
				return nil, 0, &models.UnmappedHabitError{Source: source, Name: r.HabitName}
			}
			dropped++
			unmapped[r.HabitName] = struct{}{}
			continue
		}
		out = append(out, resolved{row: r, id: id})
	}
	return out, dropped, nil
}
