package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose search and ask to MCP clients",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run a Model Context Protocol server backed by the configured search backend.

Tools:
  search   ranked passages with highlighted snippets, one page per call
  ask      a complete answer with its citations

Resources:
  sercha-ask://documents               every document ID and filename
  sercha-ask://documents/{documentId}  one document summary

The server talks JSON-RPC over stdio unless --port is given, in which
case it serves the streamable HTTP transport on that port.

Examples:
  sercha-ask mcp serve
  sercha-ask mcp serve --port 8080

Client configuration for stdio:
  {
    "mcpServers": {
      "sercha-ask": {"command": "sercha-ask", "args": ["mcp", "serve"]}
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if mcpPort < 0 {
		return fmt.Errorf("invalid --port %d", mcpPort)
	}

	server, err := mcp.NewServer(&mcp.Ports{
		NewQuerySession: services.NewQuerySession,
		Settings:        services.Settings,
		Documents:       services.Documents,
	}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if mcpPort == 0 {
		return server.Run(ctx)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", mcpPort))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", mcpPort, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost:%d\n", mcpPort)
	return server.Serve(ctx, ln)
}
