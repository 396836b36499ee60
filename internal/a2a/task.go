package a2a

import (
	"fmt"
	"time"
)

// TaskState is the task state machine's enum (spec.md §3).
type TaskState string

const (
	TaskSubmitted     TaskState = "submitted"
	TaskWorking       TaskState = "working"
	TaskInputRequired TaskState = "input_required"
	TaskCompleted     TaskState = "completed"
	TaskFailed        TaskState = "failed"
	TaskCanceled      TaskState = "canceled"
)

// IsTerminal reports whether s is one of the terminal states.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskCanceled:
		return true
	default:
		return false
	}
}

// Task is a unit of work with a state machine and a list of artifacts.
// Once Task.State is terminal, no further mutation is accepted: SetState
// and AppendArtifact become no-ops (see spec.md §3 invariant and §8
// "Terminal tasks do not change").
type Task struct {
	ID          string     `json:"id"`
	ContextID   string     `json:"context_id"`
	State       TaskState  `json:"state"`
	LastMessage *Message   `json:"last_message,omitempty"`
	Artifacts   []Artifact `json:"artifacts"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewTask creates a fresh task in the submitted state.
func NewTask(id, contextID string) *Task {
	return &Task{
		ID:        id,
		ContextID: contextID,
		State:     TaskSubmitted,
		Artifacts: []Artifact{},
		CreatedAt: time.Now().UTC(),
	}
}

// SetState transitions the task to state, carrying an optional message.
// It is a no-op once the task is already terminal.
func (t *Task) SetState(state TaskState, msg *Message) {
	if t.State.IsTerminal() {
		return
	}
	t.State = state
	if msg != nil {
		t.LastMessage = msg
	}
}

// AppendArtifact applies a TaskArtifactUpdateEvent to the task: when
// append is true, it extends the parts of the existing artifact sharing
// artifactID (failing if none exists); otherwise it appends a new
// artifact to the task's list. A no-op on a terminal task.
func (t *Task) AppendArtifact(artifact Artifact, append_ bool) error {
	if t.State.IsTerminal() {
		return nil
	}
	if !append_ {
		t.Artifacts = append(t.Artifacts, artifact)
		return nil
	}
	for i := range t.Artifacts {
		if t.Artifacts[i].ArtifactID == artifact.ArtifactID {
			t.Artifacts[i].Parts = append(t.Artifacts[i].Parts, artifact.Parts...)
			return nil
		}
	}
	return fmt.Errorf("artifact %q not found on task %q", artifact.ArtifactID, t.ID)
}
