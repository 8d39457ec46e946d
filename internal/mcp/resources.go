// ABOUTME: MCP resource implementations for the habit warehouse.
// ABOUTME: Provides habitetl://report and habitetl://summary resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harperreed/habitetl/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	reportURI  = "habitetl://report"
	summaryURI = "habitetl://summary"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         reportURI,
		Name:        "Habit Analytics Report",
		Description: "All three analytics query results evaluated as of today",
		MIMEType:    "application/json",
	}, s.handleReportResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         summaryURI,
		Name:        "Last Pipeline Summary",
		Description: "Summary record written by the most recent pipeline run",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)
}

func (s *Server) handleReportResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	rep, err := s.store.Report(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}
	return jsonResource(reportURI, rep)
}

func (s *Server) handleSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	summary, err := report.ReadSummary(s.summaryPath)
	if err != nil {
		return nil, err
	}
	return jsonResource(summaryURI, summary)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
