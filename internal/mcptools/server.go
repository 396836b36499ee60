// Package mcptools hosts the peer-invocation tools (C5) behind a real
// Model Context Protocol server, and adapts an MCP client connection into
// the model.Transport the gateway's reasoning loop drives.
package mcptools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ToolHandler executes one tool call given its raw JSON arguments and
// returns the tool's textual result.
type ToolHandler func(ctx context.Context, arguments json.RawMessage) (string, error)

// ToolSpec describes one tool to register on the server.
type ToolSpec struct {
	Name        string
	Description string
	Schema      json.RawMessage // json-schema object, or nil for no parameters
	Handler     ToolHandler
}

// NewServer builds an in-process MCP server exposing the given tools. Used
// by the agent runtime and the registry's chat endpoint to host
// agent_discover/agent_send_message for their own model gateway calls;
// auxiliary mcp.<port> services are reached through NewHTTPTransport
// instead and are not hosted here.
func NewServer(name, version string, specs []ToolSpec) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(name, version, mcpserver.WithToolCapabilities(false))

	for _, spec := range specs {
		opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
		if len(spec.Schema) > 0 {
			opts = append(opts, mcp.WithRawInputSchema(spec.Schema))
		}
		tool := mcp.NewTool(spec.Name, opts...)

		handler := spec.Handler
		s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, err := json.Marshal(req.Params.Arguments)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			result, err := handler(ctx, args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(result), nil
		})
	}

	return s
}
