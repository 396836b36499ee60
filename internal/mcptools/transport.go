package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kandev/agentnet/internal/common/apierrors"
	"github.com/kandev/agentnet/internal/model"
)

// Transport implements model.Transport over an initialized MCP client
// connection, satisfying C2's mcp_transport contract: discover the tool
// catalog once, then invoke tools by name with JSON arguments.
type Transport struct {
	client *mcpclient.Client
}

// NewInProcessTransport dials srv in-process (no network hop) and performs
// the MCP initialize handshake, returning a ready-to-use Transport. This is
// how a GenericAgentRuntime equips its own model gateway call with the
// agent_discover/agent_send_message tools C5 registers on srv.
func NewInProcessTransport(ctx context.Context, srv *mcpserver.MCPServer, clientName, clientVersion string) (*Transport, error) {
	client, err := mcpclient.NewInProcessClient(srv)
	if err != nil {
		return nil, apierrors.ToolError("creating in-process mcp client", err)
	}
	return newTransport(ctx, client, clientName, clientVersion)
}

// NewHTTPTransport dials an external MCP server over streamable HTTP (an
// auxiliary mcp.<port> service from config) and performs the same
// initialize handshake as NewInProcessTransport.
func NewHTTPTransport(ctx context.Context, url, clientName, clientVersion string) (*Transport, error) {
	client, err := mcpclient.NewStreamableHttpClient(url)
	if err != nil {
		return nil, apierrors.ToolError("creating http mcp client for "+url, err)
	}
	return newTransport(ctx, client, clientName, clientVersion)
}

func newTransport(ctx context.Context, client *mcpclient.Client, clientName, clientVersion string) (*Transport, error) {
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: clientVersion}

	if _, err := client.Initialize(ctx, initReq); err != nil {
		_ = client.Close()
		return nil, apierrors.ToolError("initializing mcp transport", err)
	}
	return &Transport{client: client}, nil
}

// ListTools enumerates the tools this transport exposes, converting each to
// the gateway's provider-agnostic {name, description, json-schema} record.
func (t *Transport) ListTools(ctx context.Context) ([]model.ToolDefinition, error) {
	result, err := t.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, apierrors.ToolError("listing mcp tools", err)
	}

	defs := make([]model.ToolDefinition, 0, len(result.Tools))
	for _, tool := range result.Tools {
		schema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, apierrors.ToolError("encoding tool schema for "+tool.Name, err)
		}
		defs = append(defs, model.ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  schema,
		})
	}
	return defs, nil
}

// CallTool invokes the named tool with the given JSON arguments and returns
// its combined text content.
func (t *Transport) CallTool(ctx context.Context, name string, arguments json.RawMessage) (string, error) {
	var args map[string]any
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &args); err != nil {
			return "", apierrors.InvalidInput(fmt.Sprintf("tool %q arguments are not a JSON object", name))
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := t.client.CallTool(ctx, req)
	if err != nil {
		return "", apierrors.ToolError("calling tool "+name, err)
	}
	if result.IsError {
		return "", apierrors.ToolError("tool "+name+" returned an error", fmt.Errorf("%v", textOf(result)))
	}
	return textOf(result), nil
}

// Close releases the underlying client connection.
func (t *Transport) Close() error {
	return t.client.Close()
}

func textOf(result *mcp.CallToolResult) string {
	var out string
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			out += tc.Text
		}
	}
	return out
}
