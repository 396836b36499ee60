package model

import (
	"context"
	"encoding/json"
	"testing"
)

type stubTransport struct {
	tools   []ToolDefinition
	calls   []string
	results map[string]string
}

func (s *stubTransport) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	return s.tools, nil
}

func (s *stubTransport) CallTool(ctx context.Context, name string, arguments json.RawMessage) (string, error) {
	s.calls = append(s.calls, name)
	return s.results[name], nil
}

type stubProvider struct {
	step     int
	choices  []Choice
}

func (p *stubProvider) Complete(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (Choice, error) {
	c := p.choices[p.step]
	p.step++
	return c, nil
}

func TestChatReturnsImmediatelyWhenNoToolCall(t *testing.T) {
	provider := &stubProvider{choices: []Choice{
		{Message: ChatMessage{Role: "assistant", Text: "hi"}, FinishReason: FinishStop},
	}}
	gw := New(provider)
	transport := &stubTransport{}

	msgs, choice, err := gw.Chat(context.Background(), []ChatMessage{{Role: "user", Text: "hello"}}, transport)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if choice.Message.Text != "hi" {
		t.Errorf("expected final text 'hi', got %q", choice.Message.Text)
	}
	if len(msgs) != 1 {
		t.Errorf("expected transcript unchanged at 1 message, got %d", len(msgs))
	}
}

func TestChatLoopsThroughToolCall(t *testing.T) {
	call := ToolCall{ID: "call1", Name: "agent_discover", Arguments: json.RawMessage(`{"category":"scholar"}`)}
	provider := &stubProvider{choices: []Choice{
		{Message: ChatMessage{Role: "assistant", ToolCalls: []ToolCall{call}}, FinishReason: FinishToolCalls},
		{Message: ChatMessage{Role: "assistant", Text: "done"}, FinishReason: FinishStop},
	}}
	transport := &stubTransport{results: map[string]string{"agent_discover": `[]`}}
	gw := New(provider)

	msgs, choice, err := gw.Chat(context.Background(), []ChatMessage{{Role: "user", Text: "find scholars"}}, transport)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if choice.Message.Text != "done" {
		t.Errorf("expected final text 'done', got %q", choice.Message.Text)
	}
	if len(transport.calls) != 1 || transport.calls[0] != "agent_discover" {
		t.Errorf("expected one call to agent_discover, got %v", transport.calls)
	}
	// user message + assistant tool-call message + tool result message
	if len(msgs) != 3 {
		t.Errorf("expected transcript of 3 messages, got %d", len(msgs))
	}
	if msgs[2].Role != "tool" || msgs[2].ToolCallID != "call1" {
		t.Errorf("expected tool result message correlated to call1, got %+v", msgs[2])
	}
}

func TestExtractJSONObjectTakesTextSurroundingJSON(t *testing.T) {
	raw := json.RawMessage(`Sure, here you go: {"category": "hospital"} -- hope that helps!`)
	got, err := extractJSONObject(raw)
	if err != nil {
		t.Fatalf("extractJSONObject: %v", err)
	}
	var m map[string]string
	if err := json.Unmarshal(got, &m); err != nil {
		t.Fatalf("unmarshal extracted json: %v", err)
	}
	if m["category"] != "hospital" {
		t.Errorf("expected category hospital, got %+v", m)
	}
}

func TestExtractJSONObjectRejectsGarbage(t *testing.T) {
	if _, err := extractJSONObject(json.RawMessage(`not json at all`)); err == nil {
		t.Error("expected error for non-JSON arguments")
	}
}
