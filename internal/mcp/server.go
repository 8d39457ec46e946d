// ABOUTME: MCP server setup over the habit warehouse.
// ABOUTME: Exposes the analytics queries as tools and the report as resources.
package mcp

import (
	"context"
	"time"

	"github.com/harperreed/habitetl/internal/models"
	"github.com/harperreed/habitetl/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Warehouse is the query side of the store the server reads.
type Warehouse interface {
	PerformanceOverview(ctx context.Context) ([]models.PerformanceRow, error)
	RecentTrend(ctx context.Context, evalTime time.Time) ([]models.TrendRow, error)
	CorrelationInputs(ctx context.Context) (models.CorrelationRow, error)
	TableCounts(ctx context.Context) (storage.Counts, error)
	Report(ctx context.Context, evalTime time.Time) (*models.Report, error)
}

// Server wraps the MCP server with warehouse access.
type Server struct {
	mcpServer   *mcp.Server
	store       Warehouse
	summaryPath string
	now         func() time.Time
}

// NewServer creates a new MCP server over the given warehouse. summaryPath
// points at the last run's summary file for the summary resource.
func NewServer(store Warehouse, summaryPath, version string) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "habitetl",
			Version: version,
		},
		nil,
	)

	s := &Server{
		mcpServer:   mcpServer,
		store:       store,
		summaryPath: summaryPath,
		now:         time.Now,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
