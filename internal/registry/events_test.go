package registry

import (
	"testing"

	"github.com/kandev/agentnet/internal/a2a"
	"github.com/kandev/agentnet/internal/common/apierrors"
)

// TestTerminalImmutability is end-to-end scenario 6 of spec.md §8.
func TestTerminalImmutability(t *testing.T) {
	g := NewGraph()
	if err := g.UserRegister("u1", "Alice"); err != nil {
		t.Fatalf("UserRegister: %v", err)
	}

	task := a2a.NewTask("t1", "c1")
	if err := g.ForwardTask("u1", task); err != nil {
		t.Fatalf("ForwardTask: %v", err)
	}
	if err := g.ForwardTaskStatus("u1", a2a.TaskStatusUpdateEvent{TaskID: "t1", State: a2a.TaskWorking}); err != nil {
		t.Fatalf("status working: %v", err)
	}
	if err := g.ForwardTaskArtifact("u1", a2a.TaskArtifactUpdateEvent{
		TaskID:   "t1",
		Artifact: a2a.Artifact{ArtifactID: "art1", Name: "out", Parts: []a2a.Part{a2a.NewTextPart("hello")}},
		Append:   false,
	}); err != nil {
		t.Fatalf("artifact: %v", err)
	}
	if err := g.ForwardTaskStatus("u1", a2a.TaskStatusUpdateEvent{TaskID: "t1", State: a2a.TaskCompleted}); err != nil {
		t.Fatalf("status completed: %v", err)
	}
	if err := g.ForwardTaskStatus("u1", a2a.TaskStatusUpdateEvent{TaskID: "t1", State: a2a.TaskFailed}); err != nil {
		t.Fatalf("status failed (should be accepted as a no-op call): %v", err)
	}

	tasks, err := g.GetTasks("u1")
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	stored, ok := tasks["t1"]
	if !ok {
		t.Fatal("expected task t1 to be stored")
	}
	if stored.State != a2a.TaskCompleted {
		t.Errorf("expected terminal state to remain completed, got %v", stored.State)
	}
}

func TestEventsRejectPublicAgentTarget(t *testing.T) {
	g := NewGraph()
	agentID, _ := g.Register("A", "http://a:1", "X", false, nil)

	task := a2a.NewTask("t1", "c1")
	if err := g.ForwardTask(agentID, task); !apierrors.Is(err, apierrors.CodeInvalidRole) {
		t.Errorf("expected InvalidRole for event addressed to a public agent, got %v", err)
	}
}

func TestArtifactAppendTrueAgainstMissingArtifactFails(t *testing.T) {
	g := NewGraph()
	_ = g.UserRegister("u1", "Alice")
	_ = g.ForwardTask("u1", a2a.NewTask("t1", "c1"))

	err := g.ForwardTaskArtifact("u1", a2a.TaskArtifactUpdateEvent{
		TaskID:   "t1",
		Artifact: a2a.Artifact{ArtifactID: "missing", Parts: []a2a.Part{a2a.NewTextPart("x")}},
		Append:   true,
	})
	if err == nil {
		t.Error("expected append=true against a missing artifact to fail")
	}
}

func TestStatusForUnknownTaskFails(t *testing.T) {
	g := NewGraph()
	_ = g.UserRegister("u1", "Alice")

	err := g.ForwardTaskStatus("u1", a2a.TaskStatusUpdateEvent{TaskID: "never-created", State: a2a.TaskWorking})
	if !apierrors.Is(err, apierrors.CodeNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestArtifactAppendTrueConcatenatesLikeOneBigUpdate(t *testing.T) {
	g := NewGraph()
	_ = g.UserRegister("u1", "Alice")
	_ = g.ForwardTask("u1", a2a.NewTask("t1", "c1"))
	_ = g.ForwardTaskArtifact("u1", a2a.TaskArtifactUpdateEvent{
		TaskID:   "t1",
		Artifact: a2a.Artifact{ArtifactID: "art1", Name: "out", Parts: []a2a.Part{a2a.NewTextPart("a")}},
		Append:   false,
	})
	for _, chunk := range []string{"b", "c", "d"} {
		if err := g.ForwardTaskArtifact("u1", a2a.TaskArtifactUpdateEvent{
			TaskID:   "t1",
			Artifact: a2a.Artifact{ArtifactID: "art1", Parts: []a2a.Part{a2a.NewTextPart(chunk)}},
			Append:   true,
		}); err != nil {
			t.Fatalf("append %q: %v", chunk, err)
		}
	}

	tasks, _ := g.GetTasks("u1")
	parts := tasks["t1"].Artifacts[0].Parts
	if len(parts) != 4 {
		t.Fatalf("expected 4 concatenated parts, got %d", len(parts))
	}
}
