// ABOUTME: MCP tool implementations for the habit analytics queries.
// ABOUTME: Performance overview, recent trend, correlation inputs, and table counts.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/habitetl/internal/models"
	"github.com/harperreed/habitetl/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "performance_overview",
		Description: "Mean score and checkmark count per habit, best first",
	}, s.handlePerformanceOverview)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "recent_trend",
		Description: "Per-day mean of non-vaping habit scores and the vaping score over the trailing 7 days",
	}, s.handleRecentTrend)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "correlation_inputs",
		Description: "Overall mean score of Coding, Gym, and Walk",
	}, s.handleCorrelationInputs)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "table_counts",
		Description: "Row counts of the habits, habit_checkmarks, and habit_scores tables",
	}, s.handleTableCounts)
}

// Tool input/output types

type performanceInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max habits to return (default all)"`
}

type performanceOutput struct {
	Habits []models.PerformanceRow `json:"habits"`
}

type trendInput struct {
	AsOf string `json:"as_of,omitempty" jsonschema:"Last day of the window as YYYY-MM-DD, defaults to today"`
}

type trendOutput struct {
	AsOf string            `json:"as_of"`
	Days []models.TrendRow `json:"days"`
}

type emptyInput struct{}

func (s *Server) handlePerformanceOverview(ctx context.Context, req *mcp.CallToolRequest, input performanceInput) (*mcp.CallToolResult, performanceOutput, error) {
	rows, err := s.store.PerformanceOverview(ctx)
	if err != nil {
		return nil, performanceOutput{}, fmt.Errorf("failed to query performance: %w", err)
	}
	if input.Limit > 0 && input.Limit < len(rows) {
		rows = rows[:input.Limit]
	}
	return nil, performanceOutput{Habits: rows}, nil
}

func (s *Server) handleRecentTrend(ctx context.Context, req *mcp.CallToolRequest, input trendInput) (*mcp.CallToolResult, trendOutput, error) {
	asOf := s.now()
	if input.AsOf != "" {
		t, err := time.Parse(models.DateLayout, input.AsOf)
		if err != nil {
			return nil, trendOutput{}, fmt.Errorf("invalid as_of %q: expected YYYY-MM-DD", input.AsOf)
		}
		asOf = t
	}

	rows, err := s.store.RecentTrend(ctx, asOf)
	if err != nil {
		return nil, trendOutput{}, fmt.Errorf("failed to query trend: %w", err)
	}
	return nil, trendOutput{AsOf: models.CalendarDate(asOf).Format(models.DateLayout), Days: rows}, nil
}

func (s *Server) handleCorrelationInputs(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, models.CorrelationRow, error) {
	row, err := s.store.CorrelationInputs(ctx)
	if err != nil {
		return nil, models.CorrelationRow{}, fmt.Errorf("failed to query correlation inputs: %w", err)
	}
	return nil, row, nil
}

func (s *Server) handleTableCounts(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, storage.Counts, error) {
	counts, err := s.store.TableCounts(ctx)
	if err != nil {
		return nil, storage.Counts{}, fmt.Errorf("failed to count tables: %w", err)
	}
	return nil, counts, nil
}
