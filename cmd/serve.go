package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/concierge/pkg/service"
	"github.com/theapemachine/concierge/pkg/tools"
)

var (
	addrFlag string
	mcpFlag  bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the agent over HTTP, or the tool registry over MCP",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if mcpFlag {
				return server.ServeStdio(tools.NewMCPServer(rt.registry, version))
			}

			addr := addrFlag
			if addr == "" {
				addr = viper.GetString("server.addr")
			}

			return service.NewChatServer(
				rt.agent, rt.registry, rt.store, rt.index,
				service.WithAddr(addr),
			).Run()
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&addrFlag, "addr", "a", "", "address to listen on (overrides server.addr)")
	serveCmd.Flags().BoolVar(&mcpFlag, "mcp", false, "serve tools over MCP stdio instead of HTTP")
}

var longServe = `
Serve the customer-service agent.

Examples:
  # Serve the HTTP API on the configured address
  concierge serve

  # Serve on a specific address
  concierge serve --addr :8080

  # Expose the tool registry to MCP clients over stdio
  concierge serve --mcp
`
