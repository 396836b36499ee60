package mcptools

import (
	"context"
	"encoding/json"
	"testing"
)

func TestServerAndTransportRoundTrip(t *testing.T) {
	srv := NewServer("test-agent", "0.1.0", []ToolSpec{
		{
			Name:        "agent_discover",
			Description: "discover peer agents",
			Schema:      json.RawMessage(`{"type":"object","properties":{"category":{"type":"string"}}}`),
			Handler: func(ctx context.Context, arguments json.RawMessage) (string, error) {
				var args struct {
					Category string `json:"category"`
				}
				if err := json.Unmarshal(arguments, &args); err != nil {
					return "", err
				}
				return `[{"name":"scholar-1","category":"` + args.Category + `"}]`, nil
			},
		},
	})

	ctx := context.Background()
	transport, err := NewInProcessTransport(ctx, srv, "test-client", "0.1.0")
	if err != nil {
		t.Fatalf("NewInProcessTransport: %v", err)
	}
	defer transport.Close()

	defs, err := transport.ListTools(ctx)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "agent_discover" {
		t.Fatalf("expected one agent_discover tool, got %+v", defs)
	}

	result, err := transport.CallTool(ctx, "agent_discover", json.RawMessage(`{"category":"scholar"}`))
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result != `[{"name":"scholar-1","category":"scholar"}]` {
		t.Errorf("unexpected tool result: %q", result)
	}
}

func TestCallToolRejectsMalformedArguments(t *testing.T) {
	srv := NewServer("test-agent", "0.1.0", []ToolSpec{
		{
			Name:        "agent_send_message",
			Description: "send a message to a peer agent",
			Handler: func(ctx context.Context, arguments json.RawMessage) (string, error) {
				return "ok", nil
			},
		},
	})
	ctx := context.Background()
	transport, err := NewInProcessTransport(ctx, srv, "test-client", "0.1.0")
	if err != nil {
		t.Fatalf("NewInProcessTransport: %v", err)
	}
	defer transport.Close()

	if _, err := transport.CallTool(ctx, "agent_send_message", json.RawMessage(`not json`)); err == nil {
		t.Error("expected error for malformed arguments")
	}
}
