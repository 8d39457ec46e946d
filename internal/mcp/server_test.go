// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Handlers run against a seeded SQLite warehouse.
package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/habitetl/internal/models"
	"github.com/harperreed/habitetl/internal/report"
	"github.com/harperreed/habitetl/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 8, 5, 12, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

// setupServer seeds a warehouse with three habits and two days of data.
func setupServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()

	db, err := storage.Open(filepath.Join(dir, "warehouse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	d1 := time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC)
	habits := []models.HabitDefinition{
		{ID: 1, Name: "Vaping", Color: "#5D4037", UserID: 1, CreatedAt: testNow},
		{ID: 2, Name: "Coding", Color: "#3949AB", UserID: 1, CreatedAt: testNow},
		{ID: 3, Name: "Gym", Color: "#FF5722", UserID: 1, CreatedAt: testNow},
	}
	checks := []models.CheckmarkRecord{
		{Date: d1, UserID: 1, HabitID: 2, HabitName: "Coding", Value: f(2)},
		{Date: d2, UserID: 1, HabitID: 2, HabitName: "Coding", Value: f(2)},
	}
	scores := []models.ScoreRecord{
		{Date: d1, UserID: 1, HabitID: 1, HabitName: "Vaping", Score: f(0.25)},
		{Date: d1, UserID: 1, HabitID: 2, HabitName: "Coding", Score: f(0.5)},
		{Date: d2, UserID: 1, HabitID: 2, HabitName: "Coding", Score: f(0.75)},
	}
	require.NoError(t, db.ReplaceAll(context.Background(), habits, checks, scores))

	summaryPath := filepath.Join(dir, "pipeline_summary.json")
	server, err := NewServer(db, summaryPath, "test")
	require.NoError(t, err)
	server.now = func() time.Time { return testNow }
	return server, summaryPath
}

func TestNewServer(t *testing.T) {
	server, _ := setupServer(t)
	assert.NotNil(t, server.mcpServer)
	assert.NotNil(t, server.store)
}

func TestHandlePerformanceOverview(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()

	_, out, err := server.handlePerformanceOverview(ctx, &mcp.CallToolRequest{}, performanceInput{})
	require.NoError(t, err)
	require.Len(t, out.Habits, 3)
	assert.Equal(t, "Coding", out.Habits[0].Name)
	assert.InDelta(t, 0.625, *out.Habits[0].AvgScore, 1e-9)
	assert.Equal(t, int64(2), out.Habits[0].TotalEntries)
	assert.Equal(t, "Gym", out.Habits[2].Name)
	assert.Nil(t, out.Habits[2].AvgScore)

	_, out, err = server.handlePerformanceOverview(ctx, &mcp.CallToolRequest{}, performanceInput{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, out.Habits, 1)
}

func TestHandleRecentTrend(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    trendInput
		wantAsOf string
		wantDays int
		wantErr  bool
	}{
		{name: "defaults to today", input: trendInput{}, wantAsOf: "2025-08-05", wantDays: 2},
		{name: "explicit date", input: trendInput{AsOf: "2025-08-04"}, wantAsOf: "2025-08-04", wantDays: 1},
		{name: "window past the data", input: trendInput{AsOf: "2025-09-01"}, wantAsOf: "2025-09-01", wantDays: 0},
		{name: "bad date", input: trendInput{AsOf: "last week"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := server.handleRecentTrend(ctx, &mcp.CallToolRequest{}, tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAsOf, out.AsOf)
			assert.Len(t, out.Days, tt.wantDays)
		})
	}
}

func TestHandleCorrelationInputs(t *testing.T) {
	server, _ := setupServer(t)

	_, out, err := server.handleCorrelationInputs(context.Background(), &mcp.CallToolRequest{}, emptyInput{})
	require.NoError(t, err)
	require.NotNil(t, out.AvgCoding)
	assert.InDelta(t, 0.625, *out.AvgCoding, 1e-9)
	assert.Nil(t, out.AvgGym)
	assert.Nil(t, out.AvgWalk)
}

func TestHandleTableCounts(t *testing.T) {
	server, _ := setupServer(t)

	_, out, err := server.handleTableCounts(context.Background(), &mcp.CallToolRequest{}, emptyInput{})
	require.NoError(t, err)
	assert.Equal(t, storage.Counts{Habits: 3, Checkmarks: 2, Scores: 3}, out)
}

func TestHandleReportResource(t *testing.T) {
	server, _ := setupServer(t)

	result, err := server.handleReportResource(context.Background(), &mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, reportURI, result.Contents[0].URI)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var rep models.Report
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &rep))
	assert.Len(t, rep.Performance, 3)
	assert.Len(t, rep.Trend, 2)
}

func TestHandleSummaryResource(t *testing.T) {
	server, summaryPath := setupServer(t)
	ctx := context.Background()

	_, err := server.handleSummaryResource(ctx, &mcp.ReadResourceRequest{})
	assert.Error(t, err, "no summary written yet")

	name := "Coding"
	require.NoError(t, report.WriteSummary(summaryPath, models.Summary{
		ExecutionTimestamp:     testNow,
		HabitsCount:            3,
		TopPerformingHabitName: &name,
	}))

	result, err := server.handleSummaryResource(ctx, &mcp.ReadResourceRequest{})
	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, `"top_performing_habit_name": "Coding"`)
	assert.Equal(t, summaryURI, result.Contents[0].URI)
}
