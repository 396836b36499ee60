package peerclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/kandev/agentnet/internal/a2a"
)

func TestCardFetchesWellKnownEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/agent-card" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a2a.AgentCard{Name: "scholar-1"})
	}))
	defer srv.Close()

	card, err := New().Card(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Card: %v", err)
	}
	if card.Name != "scholar-1" {
		t.Errorf("expected name scholar-1, got %q", card.Name)
	}
}

func TestSendMessageReturnsFinalTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/send" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req SendMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		task := a2a.NewTask("t1", "c1")
		task.SetState(a2a.TaskCompleted, nil)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(task)
	}))
	defer srv.Close()

	task, err := New().SendMessage(context.Background(), srv.URL, SendMessageRequest{Parts: []a2a.Part{a2a.NewTextPart("hi")}})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if task.ID != "t1" || task.State != a2a.TaskCompleted {
		t.Errorf("unexpected task %+v", task)
	}
}

func TestStreamSendMessageReceivesEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		defer conn.Close()

		var req SendMessageRequest
		if err := conn.ReadJSON(&req); err != nil {
			t.Fatalf("read initial request: %v", err)
		}

		task := a2a.NewTask("t1", "c1")
		_ = conn.WriteJSON(a2a.NewTaskEvent(task))
		_ = conn.WriteJSON(a2a.NewStatusEvent(a2a.TaskStatusUpdateEvent{TaskID: "t1", State: a2a.TaskWorking}))
		_ = conn.WriteJSON(a2a.NewStatusEvent(a2a.TaskStatusUpdateEvent{TaskID: "t1", State: a2a.TaskCompleted, Final: true}))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	stream, err := StreamSendMessage(context.Background(), srv.URL, SendMessageRequest{Parts: []a2a.Part{a2a.NewTextPart("hi")}})
	if err != nil {
		t.Fatalf("StreamSendMessage: %v", err)
	}
	defer stream.Close()

	var events []a2a.TaskEvent
	for {
		event, ok, err := stream.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		events = append(events, event)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[2].Status.State != a2a.TaskCompleted {
		t.Errorf("expected final event completed, got %+v", events[2].Status)
	}
}
