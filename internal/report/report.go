// ABOUTME: Renders analytics results as console tables, JSON, or YAML.
// ABOUTME: Table output uses tablewriter with colored section headings.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/harperreed/habitetl/internal/models"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// IsValidFormat checks if a string names a supported report format.
func IsValidFormat(s string) bool {
	switch Format(s) {
	case FormatTable, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// Write renders rep to w in the given format.
func Write(w io.Writer, rep *models.Report, format Format) error {
	switch format {
	case FormatTable, "":
		RenderTables(w, rep)
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format: %s", format)
	}
}

// RenderTables prints the three query results as tables.
func RenderTables(w io.Writer, rep *models.Report) {
	heading := color.New(color.FgCyan, color.Bold)

	_, _ = heading.Fprintln(w, "Habit Performance Overview")
	tw := newTable(w, []string{"ID", "HABIT", "COLOR", "AVG SCORE", "ENTRIES"})
	for _, r := range rep.Performance {
		tw.Append([]string{
			strconv.FormatInt(r.HabitID, 10),
			r.Name,
			r.Color,
			formatFloat(r.AvgScore),
			strconv.FormatInt(r.TotalEntries, 10),
		})
	}
	tw.Render()

	_, _ = heading.Fprintf(w, "\nRecent 7-Day Trend (through %s)\n", rep.EvaluatedAt.Format(models.DateLayout))
	if len(rep.Trend) == 0 {
		_, _ = color.New(color.Faint).Fprintln(w, "No scores in window.")
	} else {
		tw = newTable(w, []string{"DATE", "POSITIVE HABITS AVG", "VAPING SCORE"})
		for _, r := range rep.Trend {
			tw.Append([]string{r.Date, formatFloat(r.PositiveHabitsAvg), formatFloat(r.VapingScore)})
		}
		tw.Render()
	}

	_, _ = heading.Fprintln(w, "\nHabit Correlation Data")
	tw = newTable(w, []string{"AVG CODING", "AVG GYM", "AVG WALK"})
	c := rep.Correlation
	tw.Append([]string{formatFloat(c.AvgCoding), formatFloat(c.AvgGym), formatFloat(c.AvgWalk)})
	tw.Render()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoWrapText(false)
	return tw
}

func formatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 3, 64)
}
