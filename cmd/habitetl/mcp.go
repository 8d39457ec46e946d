// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Serves the warehouse analytics over stdio.
package main

import (
	"github.com/harperreed/habitetl/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server answers from the warehouse written by 'habitetl run' and
communicates via stdin/stdout. It never modifies the warehouse.

CLAUDE DESKTOP CONFIGURATION:

  {
    "mcpServers": {
      "habitetl": {
        "command": "habitetl",
        "args": ["mcp", "--warehouse-path", "/path/to/meshos_warehouse.db"]
      }
    }
  }

AVAILABLE TOOLS:

  performance_overview   Mean score and checkmark count per habit
  recent_trend           Last 7 days of positive-habit mean and vaping score
  correlation_inputs     Overall mean of Coding, Gym, and Walk
  table_counts           Row counts of the warehouse tables

AVAILABLE RESOURCES:

  habitetl://report      All three queries as of today
  habitetl://summary     The last pipeline_summary.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := cfg.OpenWarehouse()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		server, err := mcp.NewServer(db, cfg.SummaryPath, version)
		if err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		logger.Debug("mcp server starting", "warehouse", db.Path())
		return server.Serve(ctx)
	},
}

func init() {
	mcpCmd.Flags().String("summary-path", "pipeline_summary.json", "Summary JSON served as habitetl://summary")
	rootCmd.AddCommand(mcpCmd)
}
