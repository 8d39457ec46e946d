// ABOUTME: CSV extraction of habit definitions, checkmarks, and scores.
// ABOUTME: Habits decode through csvutil; wide tables keep their dynamic headers.
package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/harperreed/habitetl/internal/models"
	"github.com/jszwec/csvutil"
)

// Default input file names.
const (
	DefaultHabitsFile     = "Habits.csv"
	DefaultCheckmarksFile = "Checkmarks.csv"
	DefaultScoresFile     = "Scores.csv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// HabitRow is one habit definition as found in the source.
// Other columns of the export are ignored.
type HabitRow struct {
	Name     string `csv:"Name"`
	Question string `csv:"Question"`
	Color    string `csv:"Color"`
}

// Dataset is everything the extractor hands to the transformer.
type Dataset struct {
	Habits     []HabitRow
	Checkmarks *Frame
	Scores     *Frame
}

// Source produces a Dataset.
type Source interface {
	Extract(ctx context.Context) (*Dataset, error)
	Name() string
}

// CSVSource reads the three export files from a directory.
type CSVSource struct {
	Dir            string
	HabitsFile     string
	CheckmarksFile string
	ScoresFile     string
}

// Compile-time check that CSVSource implements Source.
var _ Source = (*CSVSource)(nil)

// NewCSVSource returns a CSVSource with default file names.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{
		Dir:            dir,
		HabitsFile:     DefaultHabitsFile,
		CheckmarksFile: DefaultCheckmarksFile,
		ScoresFile:     DefaultScoresFile,
	}
}

// Name identifies the source in logs.
func (s *CSVSource) Name() string { return "csv" }

// Paths returns the resolved habits, checkmarks, and scores paths.
func (s *CSVSource) Paths() (habits, checkmarks, scores string) {
	return s.path(s.HabitsFile, DefaultHabitsFile),
		s.path(s.CheckmarksFile, DefaultCheckmarksFile),
		s.path(s.ScoresFile, DefaultScoresFile)
}

func (s *CSVSource) path(name, fallback string) string {
	if name == "" {
		name = fallback
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.Dir, name)
}

// Extract reads all three files. Every file is read before any decoding so
// a missing file aborts the run without partial results.
func (s *CSVSource) Extract(ctx context.Context) (*Dataset, error) {
	habitsPath, checkmarksPath, scoresPath := s.Paths()

	contents := make(map[string][]byte, 3)
	for _, p := range []string{habitsPath, checkmarksPath, scoresPath} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, &models.MissingInputError{Path: p, Err: err}
		}
		contents[p] = bytes.TrimPrefix(data, utf8BOM)
	}

	habits, err := ReadHabits(bytes.NewReader(contents[habitsPath]), habitsPath)
	if err != nil {
		return nil, err
	}
	checkmarks, err := ReadFrame(bytes.NewReader(contents[checkmarksPath]), checkmarksPath)
	if err != nil {
		return nil, err
	}
	scores, err := ReadFrame(bytes.NewReader(contents[scoresPath]), scoresPath)
	if err != nil {
		return nil, err
	}

	return &Dataset{Habits: habits, Checkmarks: checkmarks, Scores: scores}, nil
}

// ReadHabits decodes habit definitions in file order.
// The Name, Question, and Color columns are required.
func ReadHabits(r io.Reader, source string) ([]HabitRow, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &models.DecodeError{Source: source, Err: errors.New("empty file")}
		}
		return nil, &models.DecodeError{Source: source, Err: err}
	}
	dec.DisallowMissingColumns = true

	var habits []HabitRow
	for row := 1; ; row++ {
		var h HabitRow
		err := dec.Decode(&h)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &models.DecodeError{Source: source, Row: row, Err: err}
		}
		habits = append(habits, h)
	}
	return habits, nil
}

// ReadFrame decodes a wide table. The header must contain a Date column and
// every record must have the same number of fields as the header.
func ReadFrame(r io.Reader, source string) (*Frame, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &models.DecodeError{Source: source, Err: errors.New("empty file")}
		}
		return nil, &models.DecodeError{Source: source, Err: err}
	}

	f := &Frame{Source: source, Header: header}
	if f.ColumnIndex(DateColumn) < 0 {
		return nil, &models.DecodeError{Source: source, Err: fmt.Errorf("no %s column in header", DateColumn)}
	}
	if name, ok := f.DuplicateColumn(); ok {
		return nil, &models.DecodeError{Source: source, Column: name, Err: fmt.Errorf("duplicate column %q", name)}
	}

	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &models.DecodeError{Source: source, Row: row, Err: err}
		}
		f.Rows = append(f.Rows, rec)
	}
	return f, nil
}
