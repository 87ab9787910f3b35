package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/guru-cli/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask
questions about the data directory.

The server exposes an "ask" tool that opens a chat session on first use and
keeps its memory across calls that pass the returned session_id, and an
"end_session" tool that releases it. At most --max-sessions conversations
stay open; starting another ends the least recently used one. Corpus
statistics and transcripts are available as guru:// resources.

By default, the server communicates over stdio using JSON-RPC. Use --port
to serve over streamable HTTP instead.

Examples:
  # Stdio mode (default)
  guru mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  guru mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "guru": {
        "command": "/path/to/guru",
        "args": ["mcp", "serve", "--data", "/path/to/documents"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Int("max-sessions", mcp.DefaultMaxSessions,
		"open chat sessions kept; the least recently used is ended beyond this")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	maxSessions, _ := cmd.Flags().GetInt("max-sessions")

	a, err := app(cmd)
	if err != nil {
		return err
	}
	svc, err := a.sessionService()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Sessions:        svc,
		Corpus:          a.Corpus,
		History:         a.History,
		CorpusDirectory: a.Config.CorpusDirectory(),
		MaxSessions:     maxSessions,
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		// stdout stays clean for JSON-RPC in stdio mode only.
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
