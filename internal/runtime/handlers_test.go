package runtime

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/kandev/agentnet/internal/a2a"
	"github.com/kandev/agentnet/internal/model"
	"github.com/kandev/agentnet/internal/peerclient"
)

func TestRouterServesAgentCard(t *testing.T) {
	r := newTestRuntime(t, &stubProvider{})
	srv := httptest.NewServer(r.Router())
	defer srv.Close()

	client := peerclient.New()
	card, err := client.Card(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Card: %v", err)
	}
	if card.Name != "worker-a" {
		t.Fatalf("unexpected card: %+v", card)
	}
}

func TestRouterSendAndGetTaskRoundTrip(t *testing.T) {
	provider := &stubProvider{choice: model.Choice{
		Message:      model.ChatMessage{Role: "assistant", Text: "the answer"},
		FinishReason: model.FinishStop,
	}}
	r := newTestRuntime(t, provider)
	srv := httptest.NewServer(r.Router())
	defer srv.Close()

	client := peerclient.New()
	task, err := client.SendMessage(context.Background(), srv.URL, peerclient.SendMessageRequest{
		Parts: []a2a.Part{a2a.NewTextPart("what is it")},
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if task.State != a2a.TaskCompleted {
		t.Fatalf("expected completed, got %s", task.State)
	}

	fetched, err := client.GetTask(context.Background(), srv.URL, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if fetched.ID != task.ID || fetched.State != a2a.TaskCompleted {
		t.Fatalf("unexpected fetched task: %+v", fetched)
	}
}

func TestRouterStreamingEmitsEventsToTerminal(t *testing.T) {
	provider := &stubProvider{choice: model.Choice{
		Message:      model.ChatMessage{Role: "assistant", Text: "streamed"},
		FinishReason: model.FinishStop,
	}}
	r := newTestRuntime(t, provider)
	srv := httptest.NewServer(r.Router())
	defer srv.Close()

	stream, err := peerclient.StreamSendMessage(context.Background(), srv.URL, peerclient.SendMessageRequest{
		Parts: []a2a.Part{a2a.NewTextPart("go")},
	})
	if err != nil {
		t.Fatalf("StreamSendMessage: %v", err)
	}
	defer stream.Close()

	var sawTask, sawCompleted bool
	for {
		event, ok, err := stream.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		switch event.Kind {
		case a2a.EventTask:
			sawTask = true
		case a2a.EventTaskStatus:
			if event.Status.State == a2a.TaskCompleted {
				sawCompleted = true
			}
		}
	}
	if !sawTask {
		t.Error("expected an initial task event")
	}
	if !sawCompleted {
		t.Error("expected a terminal completed status event")
	}
}
