package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

/*
NewMCPServer exposes every registered tool over the Model Context
Protocol. Handlers route through Registry.Dispatch, so MCP clients get
the same availability gating, timeout and failure normalization as the
chat surface.
*/
func NewMCPServer(registry *Registry, version string) *server.MCPServer {
	srv := server.NewMCPServer("concierge", version, server.WithLogging())

	for _, status := range registry.List() {
		srv.AddTool(
			mcp.NewTool(
				status.Name,
				mcp.WithDescription(status.Description),
				mcp.WithString("argument",
					mcp.Description("Raw argument for the tool, e.g. an image path or a tracking number"),
					mcp.Required(),
				),
			),
			dispatchHandler(registry, status.Name),
		)
	}

	return srv
}

func dispatchHandler(
	registry *Registry, name string,
) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argument, _ := req.GetArguments()["argument"].(string)

		result := registry.Dispatch(ctx, name, argument)

		if !result.Success() {
			return mcp.NewToolResultError(result.Err.Error()), nil
		}

		payload, err := json.Marshal(result.Payload)
		if err != nil {
			return nil, err
		}

		return mcp.NewToolResultText(string(payload)), nil
	}
}
