// ABOUTME: Wide to long reshaping of checkmark and score frames.
// ABOUTME: Parses calendar dates and numeric cells, keeping empty cells as null.
package transform

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/habitetl/internal/extract"
	"github.com/harperreed/habitetl/internal/models"
)

// dateLayouts are tried in order when parsing a source date.
var dateLayouts = []string{
	models.DateLayout,
	"01/02/2006",
	"2006/01/02",
	time.RFC3339,
}

// LongRow is one (date, habit) cell of a wide frame before id resolution.
type LongRow struct {
	Date      time.Time
	HabitName string
	Value     *float64
}

// ParseDate parses a source date into a calendar date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.CalendarDate(t), nil
		}
	}
	return time.Time{}, errors.New("unrecognised date format")
}

// ParseValue parses a numeric cell. Empty cells are null; Inf and NaN are
// rejected.
func ParseValue(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.New("invalid number")
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil, errors.New("non-finite number")
	}
	return &v, nil
}

// Melt reshapes a wide frame into long rows in row-major order: every date
// row emits one LongRow per non-date column, so the result has
// rows × (columns − 1) entries.
func Melt(f *extract.Frame) ([]LongRow, error) {
	if f == nil {
		return nil, nil
	}
	dateIdx := f.ColumnIndex(extract.DateColumn)
	if dateIdx < 0 {
		return nil, &models.DecodeError{Source: f.Source, Err: fmt.Errorf("no %s column in header", extract.DateColumn)}
	}

	if name, ok := f.DuplicateColumn(); ok {
		return nil, &models.DecodeError{Source: f.Source, Column: name, Err: fmt.Errorf("duplicate column %q", name)}
	}

	out := make([]LongRow, 0, f.Len()*(len(f.Header)-1))
	for i, rec := range f.Rows {
		row := i + 1
		if len(rec) != len(f.Header) {
			return nil, &models.DecodeError{
				Source: f.Source,
				Row:    row,
				Err:    fmt.Errorf("expected %d fields, got %d", len(f.Header), len(rec)),
			}
		}

		date, err := ParseDate(rec[dateIdx])
		if err != nil {
			return nil, &models.DecodeError{Source: f.Source, Row: row, Column: f.Header[dateIdx], Value: rec[dateIdx], Err: err}
		}

		for col, name := range f.Header {
			if col == dateIdx {
				continue
			}
			v, err := ParseValue(rec[col])
			if err != nil {
				return nil, &models.DecodeError{Source: f.Source, Row: row, Column: name, Value: rec[col], Err: err}
			}
			out = append(out, LongRow{Date: date, HabitName: strings.TrimSpace(name), Value: v})
		}
	}
	return out, nil
}
