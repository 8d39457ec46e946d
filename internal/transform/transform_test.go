// ABOUTME: Tests for habit id assignment, melting, and name resolution.
// ABOUTME: Checks row counts, unmapped policies, and date and number parsing.
package transform

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/harperreed/habitetl/internal/extract"
	"github.com/harperreed/habitetl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var batch = time.Date(2025, 8, 10, 9, 30, 0, 0, time.UTC)

func TestAssignHabits(t *testing.T) {
	rows := []extract.HabitRow{
		{Name: "Vaping", Question: "Puffs?", Color: "#5D4037"},
		{Name: "Gym", Question: "Gym?", Color: "#FF5722"},
	}

	habits := AssignHabits(rows, 7, batch)
	require.Len(t, habits, 2)
	assert.Equal(t, int64(1), habits[0].ID)
	assert.Equal(t, int64(2), habits[1].ID)
	assert.Equal(t, "Gym", habits[1].Name)
	for _, h := range habits {
		assert.Equal(t, int64(7), h.UserID)
		assert.Equal(t, batch, h.CreatedAt)
	}
}

func TestTransformTrimsHabitNames(t *testing.T) {
	ds := &extract.Dataset{
		Habits: []extract.HabitRow{{Name: "Gym ", Color: " #FF5722"}, {Name: " Walk"}},
		Checkmarks: &extract.Frame{
			Source: "Checkmarks.csv",
			Header: []string{"Date", "Gym", "Walk"},
			Rows:   [][]string{{"2025-08-01", "2", "0"}},
		},
		Scores: &extract.Frame{
			Source: "Scores.csv",
			Header: []string{"Date", " Gym", "Walk "},
			Rows:   [][]string{{"2025-08-01", "0.5", "0.25"}},
		},
	}

	res, err := New(batch).Transform(ds)
	require.NoError(t, err)
	assert.Equal(t, "Gym", res.Habits[0].Name)
	assert.Equal(t, "#FF5722", res.Habits[0].Color)
	assert.Len(t, res.Checkmarks, 2)
	assert.Len(t, res.Scores, 2)
	assert.Zero(t, res.Dropped.Total())
	assert.Equal(t, int64(1), res.Scores[0].HabitID)
	assert.Equal(t, int64(2), res.Scores[1].HabitID)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-08-02", " 2025-08-02 ", "08/02/2025", "2025/08/02", "2025-08-02T15:04:05Z"} {
		t.Run(in, func(t *testing.T) {
			got, err := ParseDate(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	for _, in := range []string{"", "yesterday", "2025-13-01"} {
		t.Run("bad "+in, func(t *testing.T) {
			_, err := ParseDate(in)
			assert.Error(t, err)
		})
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = ParseValue(" 0.75 ")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.InDelta(t, 0.75, *v, 1e-9)

	for _, in := range []string{"yes", "Inf", "+Infinity", "-Infinity", "NaN", "nan"} {
		t.Run("bad "+in, func(t *testing.T) {
			_, err := ParseValue(in)
			assert.Error(t, err)
		})
	}
}

func TestMeltCountsAndOrder(t *testing.T) {
	f := &extract.Frame{
		Source: "Checkmarks.csv",
		Header: []string{"Date", "Gym", "Walk", "Coding"},
		Rows: [][]string{
			{"2025-08-02", "2", "", "0"},
			{"2025-08-01", "0", "2", "2"},
		},
	}

	rows, err := Melt(f)
	require.NoError(t, err)
	require.Len(t, rows, f.Len()*(len(f.Header)-1))

	assert.Equal(t, "Gym", rows[0].HabitName)
	assert.Equal(t, "Walk", rows[1].HabitName)
	assert.Nil(t, rows[1].Value)
	assert.Equal(t, "Coding", rows[2].HabitName)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), rows[3].Date)
}

func TestMeltDateColumnAnywhere(t *testing.T) {
	f := &extract.Frame{
		Source: "Scores.csv",
		Header: []string{"Gym", "date"},
		Rows:   [][]string{{"0.5", "2025-08-02"}},
	}

	rows, err := Melt(f)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Gym", rows[0].HabitName)
	assert.InDelta(t, 0.5, *rows[0].Value, 1e-9)
}

func TestMeltDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		frame   *extract.Frame
		wantRow int
		wantCol string
	}{
		{
			name:    "bad date",
			frame:   &extract.Frame{Source: "s", Header: []string{"Date", "Gym"}, Rows: [][]string{{"2025-08-01", "1"}, {"nope", "1"}}},
			wantRow: 2,
			wantCol: "Date",
		},
		{
			name:    "bad number",
			frame:   &extract.Frame{Source: "s", Header: []string{"Date", "Gym"}, Rows: [][]string{{"2025-08-01", "x"}}},
			wantRow: 1,
			wantCol: "Gym",
		},
		{
			name:    "short row",
			frame:   &extract.Frame{Source: "s", Header: []string{"Date", "Gym"}, Rows: [][]string{{"2025-08-01"}}},
			wantRow: 1,
		},
		{
			name:    "non-finite number",
			frame:   &extract.Frame{Source: "s", Header: []string{"Date", "Gym"}, Rows: [][]string{{"2025-08-01", "Inf"}}},
			wantRow: 1,
			wantCol: "Gym",
		},
		{
			name:    "duplicate habit column",
			frame:   &extract.Frame{Source: "s", Header: []string{"Date", "Gym", "Gym"}, Rows: [][]string{{"2025-08-01", "2", "0"}}},
			wantCol: "Gym",
		},
		{
			name:  "no date column",
			frame: &extract.Frame{Source: "s", Header: []string{"Day", "Gym"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Melt(tt.frame)
			var de *models.DecodeError
			require.True(t, errors.As(err, &de), "got %v", err)
			assert.Equal(t, tt.wantRow, de.Row)
			assert.Equal(t, tt.wantCol, de.Column)
		})
	}
}

func TestTransformDropsUnmapped(t *testing.T) {
	ds := &extract.Dataset{
		Habits: []extract.HabitRow{{Name: "Gym"}, {Name: "Walk"}},
		Checkmarks: &extract.Frame{
			Source: "Checkmarks.csv",
			Header: []string{"Date", "Gym", "Walk", "Reading"},
			Rows:   [][]string{{"2025-08-01", "2", "0", "2"}, {"2025-08-02", "", "2", "2"}},
		},
		Scores: &extract.Frame{
			Source: "Scores.csv",
			Header: []string{"Date", "Gym", "Chess"},
			Rows:   [][]string{{"2025-08-01", "0.5", "0.1"}},
		},
	}

	res, err := New(batch).Transform(ds)
	require.NoError(t, err)

	assert.Len(t, res.Habits, 2)
	assert.Len(t, res.Checkmarks, 4)
	assert.Len(t, res.Scores, 1)
	assert.Equal(t, 2, res.TrackingDays)
	assert.Equal(t, 2, res.Dropped.Checkmarks)
	assert.Equal(t, 1, res.Dropped.Scores)
	assert.Equal(t, 3, res.Dropped.Total())
	assert.Equal(t, []string{"Chess", "Reading"}, res.Dropped.Names)

	lookup, err := models.DeriveHabitMap(res.Habits)
	require.NoError(t, err)
	for _, c := range res.Checkmarks {
		id, ok := lookup.Lookup(c.HabitName)
		require.True(t, ok)
		assert.Equal(t, id, c.HabitID)
		assert.Equal(t, models.DefaultUserID, c.UserID)
	}
	for _, name := range res.Dropped.Names {
		_, ok := lookup.Lookup(name)
		assert.False(t, ok)
	}
}

func TestTransformFailPolicy(t *testing.T) {
	ds := &extract.Dataset{
		Habits:     []extract.HabitRow{{Name: "Gym"}},
		Checkmarks: &extract.Frame{Source: "c", Header: []string{"Date", "Gym"}, Rows: [][]string{{"2025-08-01", "2"}}},
		Scores:     &extract.Frame{Source: "s", Header: []string{"Date", "Reading"}, Rows: [][]string{{"2025-08-01", "0.3"}}},
	}

	tr := New(batch)
	tr.Policy = models.UnmappedFail
	_, err := tr.Transform(ds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnmappedHabit))

	var ue *models.UnmappedHabitError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "scores", ue.Source)
	assert.Equal(t, "Reading", ue.Name)
}

func TestTransformStaticMapping(t *testing.T) {
	// Habit file order differs from the fixed table, so ids diverge.
	ds := &extract.Dataset{
		Habits:     []extract.HabitRow{{Name: "Gym"}, {Name: "Vaping"}},
		Checkmarks: &extract.Frame{Source: "c", Header: []string{"Date", "Gym", "Vaping"}, Rows: [][]string{{"2025-08-01", "2", "0"}}},
		Scores:     &extract.Frame{Source: "s", Header: []string{"Date"}},
	}

	tr := New(batch)
	tr.Mapping = models.MappingStatic
	res, err := tr.Transform(ds)
	require.NoError(t, err)
	require.Len(t, res.Checkmarks, 2)
	assert.Equal(t, int64(10), res.Checkmarks[0].HabitID)
	assert.Equal(t, int64(1), res.Checkmarks[1].HabitID)
	assert.Equal(t, int64(1), res.Habits[0].ID)
	assert.Empty(t, res.Scores)
}

func TestTransformDuplicateHabitNames(t *testing.T) {
	ds := &extract.Dataset{
		Habits:     []extract.HabitRow{{Name: "Gym"}, {Name: "Gym"}},
		Checkmarks: &extract.Frame{Source: "c", Header: []string{"Date"}},
		Scores:     &extract.Frame{Source: "s", Header: []string{"Date"}},
	}

	_, err := New(batch).Transform(ds)
	assert.ErrorContains(t, err, "duplicate habit name")
}

func TestTransformFullGrid(t *testing.T) {
	names := models.StaticHabitMap().Names()
	ds := &extract.Dataset{
		Checkmarks: &extract.Frame{Source: "c", Header: append([]string{"Date"}, names...)},
		Scores:     &extract.Frame{Source: "s", Header: append([]string{"Date"}, names...)},
	}
	for _, n := range names {
		ds.Habits = append(ds.Habits, extract.HabitRow{Name: n, Color: "#000000"})
	}
	for day := 1; day <= 5; day++ {
		crow := []string{fmt.Sprintf("2025-08-%02d", day)}
		srow := []string{fmt.Sprintf("2025-08-%02d", day)}
		for i := range names {
			crow = append(crow, fmt.Sprint((day+i)%3))
			srow = append(srow, fmt.Sprintf("%.2f", float64(i)/10))
		}
		ds.Checkmarks.Rows = append(ds.Checkmarks.Rows, crow)
		ds.Scores.Rows = append(ds.Scores.Rows, srow)
	}

	res, err := New(batch).Transform(ds)
	require.NoError(t, err)
	assert.Len(t, res.Habits, 10)
	assert.Len(t, res.Checkmarks, 50)
	assert.Len(t, res.Scores, 50)
	assert.Equal(t, 5, res.TrackingDays)
	assert.Zero(t, res.Dropped.Total())
}
