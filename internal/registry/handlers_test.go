package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kandev/agentnet/internal/a2a"
	"github.com/kandev/agentnet/internal/common/config"
	"github.com/kandev/agentnet/internal/filestore"
	"github.com/kandev/agentnet/internal/httpenv"
	"github.com/kandev/agentnet/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider struct {
	choices []model.Choice
	step    int
	seen    [][]model.ChatMessage
}

func (p *stubProvider) Complete(_ context.Context, messages []model.ChatMessage, _ []model.ToolDefinition) (model.Choice, error) {
	p.seen = append(p.seen, append([]model.ChatMessage{}, messages...))
	c := p.choices[p.step]
	if p.step < len(p.choices)-1 {
		p.step++
	}
	return c, nil
}

func newTestService(t *testing.T, provider model.Provider) (*Service, *httptest.Server) {
	t.Helper()
	return newTestServiceWithBus(t, provider, nil)
}

func newTestServiceWithBus(t *testing.T, provider model.Provider, bus Publisher) (*Service, *httptest.Server) {
	t.Helper()
	files, err := filestore.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("filestore.New: %v", err)
	}
	cfg := &config.Config{
		System:  config.SystemConfig{KeepAliveInterval: 3600, KeepAliveThreshold: 7200},
		Prompts: map[string]string{"planner": "You are the planner."},
	}
	gateway := model.New(provider)

	svc := NewService(context.Background(), cfg, files, gateway, bus, nil)
	srv := httptest.NewServer(svc.Router())
	svc.SelfURL = srv.URL
	t.Cleanup(func() {
		srv.Close()
		svc.Close()
	})
	return svc, srv
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any) httpenv.Envelope {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode: %v", err)
	}
	resp, err := http.Post(srv.URL+path, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	var env httpenv.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestRegisterDiscoverHTTPRoundTrip(t *testing.T) {
	_, srv := newTestService(t, &stubProvider{})

	env := postJSON(t, srv, "/agents/register", map[string]any{
		"name": "A", "url": "http://a:1", "category": "X", "expose": false,
	})
	if env.Status != "success" {
		t.Fatalf("register failed: %+v", env)
	}
	var out struct {
		AgentID string `json:"agent_id"`
	}
	if err := httpenv.DecodeContent(env, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	env = postJSON(t, srv, "/agents/discover", map[string]any{"agent_id": out.AgentID})
	if env.Status != "success" {
		t.Fatalf("discover failed: %+v", env)
	}
}

// TestEventTaskStatusPublishesOnlyOnTerminalState covers the best-effort
// NATS notification invariant of spec.md §4/§6.4: reaching a terminal task
// state fires a "task.completed" publish, a non-terminal transition does
// not, and task creation always fires "task.forwarded".
func TestEventTaskStatusPublishesOnlyOnTerminalState(t *testing.T) {
	bus := &fakePublisher{}
	_, srv := newTestServiceWithBus(t, &stubProvider{}, bus)

	env := postJSON(t, srv, "/user/register", map[string]any{"user_id": "u1", "user_name": "Alice"})
	if env.Status != "success" {
		t.Fatalf("user register failed: %+v", env)
	}

	env = postJSON(t, srv, "/events/task/u1", a2a.NewTask("t1", "c1"))
	if env.Status != "success" {
		t.Fatalf("forward task failed: %+v", env)
	}

	env = postJSON(t, srv, "/events/task_status/u1", a2a.TaskStatusUpdateEvent{TaskID: "t1", State: a2a.TaskWorking})
	if env.Status != "success" {
		t.Fatalf("status working failed: %+v", env)
	}
	if subjects := bus.subjects(); len(subjects) != 1 || subjects[0] != "task.forwarded" {
		t.Fatalf("expected only task.forwarded so far, got %v", subjects)
	}

	env = postJSON(t, srv, "/events/task_status/u1", a2a.TaskStatusUpdateEvent{TaskID: "t1", State: a2a.TaskCompleted})
	if env.Status != "success" {
		t.Fatalf("status completed failed: %+v", env)
	}

	subjects := bus.subjects()
	if len(subjects) != 2 || subjects[1] != "task.completed" {
		t.Fatalf("expected task.forwarded then task.completed, got %v", subjects)
	}
}

func TestRegisterDuplicateURLViaHTTPFails(t *testing.T) {
	_, srv := newTestService(t, &stubProvider{})

	req := map[string]any{"name": "A", "url": "http://a:1", "category": "X", "expose": false}
	env := postJSON(t, srv, "/agents/register", req)
	if env.Status != "success" {
		t.Fatalf("first register should succeed: %+v", env)
	}
	env = postJSON(t, srv, "/agents/register", req)
	if env.Status != "error" {
		t.Fatalf("duplicate register should fail, got %+v", env)
	}
}

// TestUserChatFileRoundTrip exercises the registry-side half of spec.md §8
// scenario 5: an inline FilePart is registered into C1 and the planner's
// transcript receives a synthetic "the ID of this file is ..." text part.
func TestUserChatFileRoundTrip(t *testing.T) {
	provider := &stubProvider{choices: []model.Choice{
		{Message: model.ChatMessage{Role: "assistant", Text: "got it"}, FinishReason: model.FinishStop},
	}}
	svc, srv := newTestService(t, provider)

	env := postJSON(t, srv, "/user/register", map[string]any{"user_id": "u1", "user_name": "Alice"})
	if env.Status != "success" {
		t.Fatalf("user register failed: %+v", env)
	}

	env = postJSON(t, srv, "/user/chat", map[string]any{
		"user_id":         "u1",
		"conversation_id": "c1",
		"message": []a2a.Part{
			a2a.NewTextPart("describe"),
			a2a.NewInlineFilePart("image/png", []byte{1, 2, 3}),
		},
	})
	if env.Status != "success" {
		t.Fatalf("chat failed: %+v", env)
	}

	if len(provider.seen) == 0 {
		t.Fatal("expected provider to be called")
	}
	lastTurn := provider.seen[len(provider.seen)-1]
	var sawFileID bool
	for _, m := range lastTurn {
		if m.Role == "user" && bytes.Contains([]byte(m.Text), []byte("the ID of this file is")) {
			sawFileID = true
		}
	}
	if !sawFileID {
		t.Errorf("expected a synthetic file-id text part in the planner's transcript, turns: %+v", lastTurn)
	}

	files := svc.Files
	if files == nil {
		t.Fatal("expected filestore to be wired")
	}
}

func TestTaskCounterLifecycleHTTP(t *testing.T) {
	_, srv := newTestService(t, &stubProvider{})

	env := postJSON(t, srv, "/agents/register", map[string]any{
		"name": "B", "url": "http://b:1", "category": "X", "expose": false,
	})
	var out struct {
		AgentID string `json:"agent_id"`
	}
	_ = httpenv.DecodeContent(env, &out)

	for i := 0; i < 3; i++ {
		env = postJSON(t, srv, "/task_count/add", map[string]any{"agent_id": out.AgentID})
		if env.Status != "success" {
			t.Fatalf("task_count/add: %+v", env)
		}
	}

	resp, err := http.Get(srv.URL + "/task_count/" + out.AgentID)
	if err != nil {
		t.Fatalf("GET task_count: %v", err)
	}
	defer resp.Body.Close()
	var countEnv httpenv.Envelope
	_ = json.NewDecoder(resp.Body).Decode(&countEnv)
	var count int
	_ = httpenv.DecodeContent(countEnv, &count)
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}

	for i := 0; i < 3; i++ {
		postJSON(t, srv, "/task_count/delete", map[string]any{"agent_id": out.AgentID})
	}
	resp, _ = http.Get(srv.URL + "/task_count/" + out.AgentID)
	defer resp.Body.Close()
	_ = json.NewDecoder(resp.Body).Decode(&countEnv)
	_ = httpenv.DecodeContent(countEnv, &count)
	if count != 0 {
		t.Fatalf("expected count back to 0, got %d", count)
	}
}
