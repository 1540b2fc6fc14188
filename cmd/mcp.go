package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/theapemachine/concierge/pkg/tools"
)

var (
	mcpCmd = &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tool registry over MCP stdio",
		Long:  longMCP,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			return server.ServeStdio(tools.NewMCPServer(rt.registry, version))
		},
	}
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var longMCP = `
Expose the tool registry to MCP clients over stdio.

Shorthand for serve --mcp. Every registered tool becomes an MCP tool
with a single required "argument" string parameter; disabled tools are
listed but report their reason when called.

Examples:
  concierge mcp
`
