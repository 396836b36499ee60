// Package model defines the provider-agnostic Model Gateway contract (C2):
// a reasoning loop that drives an external model through tool calls against
// an MCP transport, independent of which provider backs it.
package model

import (
	"context"
	"encoding/json"

	"github.com/kandev/agentnet/internal/common/apierrors"
)

// ContentPartKind discriminates the kinds of content a message may carry.
type ContentPartKind string

const (
	ContentText       ContentPartKind = "text"
	ContentImageURL   ContentPartKind = "image_url"
	ContentInputAudio ContentPartKind = "input_audio"
)

// ContentPart is one multimodal content part of a chat message. Exactly one
// of Text / ImageURL / InputAudio is populated according to Kind.
type ContentPart struct {
	Kind      ContentPartKind `json:"kind"`
	Text      string          `json:"text,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
	InputAudio string         `json:"input_audio,omitempty"`
}

// ChatMessage is one entry of the growable transcript passed to Chat. Content
// is either a plain string (Text) or a list of ContentParts; callers set
// exactly one of the two.
type ChatMessage struct {
	Role       string        `json:"role"` // system | user | assistant | tool
	Text       string        `json:"text,omitempty"`
	Parts      []ContentPart `json:"parts,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall    `json:"tool_calls,omitempty"`
}

// ToolCall is one invocation the model requested during a turn.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition describes one callable tool as exposed to the provider.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // json-schema
}

// FinishReason is why the provider stopped generating.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool_calls"
)

// Choice is one candidate response from the provider.
type Choice struct {
	Message      ChatMessage  `json:"message"`
	FinishReason FinishReason `json:"finish_reason"`
}

// Transport is the subset of an MCP connection the gateway needs: list the
// callable tools and invoke one by name.
type Transport interface {
	ListTools(ctx context.Context) ([]ToolDefinition, error)
	CallTool(ctx context.Context, name string, arguments json.RawMessage) (string, error)
}

// Provider is the low-level single-turn call a concrete backend implements.
type Provider interface {
	Complete(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (Choice, error)
}

// Gateway drives the reasoning loop described in spec §4.2: send messages and
// the tool catalog to the provider, and if the model asks for a tool call,
// invoke it via the transport and loop.
type Gateway struct {
	provider Provider
}

// New builds a Gateway over the given Provider.
func New(provider Provider) *Gateway {
	return &Gateway{provider: provider}
}

// Chat runs the reasoning loop to completion, returning the updated
// transcript and the final non-tool-call choice.
func (g *Gateway) Chat(ctx context.Context, messages []ChatMessage, transport Transport) ([]ChatMessage, Choice, error) {
	catalog, err := transport.ListTools(ctx)
	if err != nil {
		return messages, Choice{}, apierrors.GatewayError("listing tool catalog", err)
	}

	for {
		choice, err := g.provider.Complete(ctx, messages, catalog)
		if err != nil {
			return messages, Choice{}, apierrors.GatewayError("provider returned no choices", err)
		}
		if choice.FinishReason != FinishToolCalls || len(choice.Message.ToolCalls) == 0 {
			return messages, choice, nil
		}

		call := choice.Message.ToolCalls[0]
		messages = append(messages, choice.Message)

		args, err := extractJSONObject(call.Arguments)
		if err != nil {
			return messages, Choice{}, apierrors.GatewayError("parsing tool call arguments", err)
		}

		result, err := transport.CallTool(ctx, call.Name, args)
		if err != nil {
			return messages, Choice{}, apierrors.GatewayError("invoking tool "+call.Name, err)
		}

		messages = append(messages, ChatMessage{
			Role:       "tool",
			Text:       result,
			ToolCallID: call.ID,
		})
	}
}

// extractJSONObject tolerates extra prose around a tool call's JSON payload
// by scanning for the first balanced {...} span, instead of assuming raw is
// already a clean JSON document.
func extractJSONObject(raw json.RawMessage) (json.RawMessage, error) {
	if json.Valid(raw) {
		return raw, nil
	}

	s := string(raw)
	start := -1
	depth := 0
	for i, r := range s {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				candidate := s[start : i+1]
				if json.Valid([]byte(candidate)) {
					return json.RawMessage(candidate), nil
				}
			}
		}
	}
	return nil, apierrors.InvalidInput("tool call arguments are not valid JSON")
}
