// ABOUTME: Wide tabular frame holding one row per date and one column per habit.
// ABOUTME: Also builds frames back from long rows for sources stored in long form.
package extract

import (
	"sort"
	"strconv"
	"strings"
)

// DateColumn is the header of the date column in wide tables.
const DateColumn = "Date"

// Frame is a decoded wide table. Cells are kept as raw strings; the
// transformer owns date and numeric parsing.
type Frame struct {
	Source string
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// ColumnIndex returns the index of the named column, matched
// case-insensitively, or -1 if absent.
func (f *Frame) ColumnIndex(name string) int {
	for i, h := range f.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// DuplicateColumn reports the first header that repeats an earlier one
// after trimming, matched case-insensitively.
func (f *Frame) DuplicateColumn() (string, bool) {
	seen := make(map[string]struct{}, len(f.Header))
	for _, h := range f.Header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := seen[key]; ok {
			return strings.TrimSpace(h), true
		}
		seen[key] = struct{}{}
	}
	return "", false
}

// LongCell is one (date, habit) observation from a long-form source.
type LongCell struct {
	Date      string
	HabitName string
	Value     *float64
}

// PivotLong turns long cells into a wide frame. Columns follow habitOrder,
// then any other habit names in first-seen order. Dates are sorted ascending
// and missing cells are left empty.
func PivotLong(source string, habitOrder []string, cells []LongCell) *Frame {
	colIdx := make(map[string]int)
	header := []string{DateColumn}
	addCol := func(name string) {
		if _, ok := colIdx[name]; ok {
			return
		}
		colIdx[name] = len(header)
		header = append(header, name)
	}
	for _, name := range habitOrder {
		addCol(name)
	}
	for _, c := range cells {
		addCol(c.HabitName)
	}

	byDate := make(map[string][]string)
	var dates []string
	for _, c := range cells {
		row, ok := byDate[c.Date]
		if !ok {
			row = make([]string, len(header))
			row[0] = c.Date
			byDate[c.Date] = row
			dates = append(dates, c.Date)
		}
		if c.Value != nil {
			row[colIdx[c.HabitName]] = strconv.FormatFloat(*c.Value, 'f', -1, 64)
		}
	}
	sort.Strings(dates)

	f := &Frame{Source: source, Header: header, Rows: make([][]string, 0, len(dates))}
	for _, d := range dates {
		f.Rows = append(f.Rows, byDate[d])
	}
	return f
}
