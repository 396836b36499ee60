package a2a

// EventKind discriminates the events carried over the streaming task
// protocol (spec.md §4.3, §6): one Task event, then any number of
// TaskStatusUpdateEvent/TaskArtifactUpdateEvent, terminated by a status
// update whose state is terminal.
type EventKind string

const (
	EventTask           EventKind = "task"
	EventTaskStatus     EventKind = "task_status"
	EventTaskArtifact   EventKind = "task_artifact"
)

// TaskStatusUpdateEvent replaces a task's status.
type TaskStatusUpdateEvent struct {
	TaskID  string    `json:"task_id"`
	State   TaskState `json:"state"`
	Message *Message  `json:"message,omitempty"`
	Final   bool      `json:"final"`
}

// TaskArtifactUpdateEvent applies one artifact mutation to a task: when
// Append is true, it extends the parts of the existing artifact sharing
// Artifact.ArtifactID; otherwise it adds a new artifact.
type TaskArtifactUpdateEvent struct {
	TaskID     string   `json:"task_id"`
	Artifact   Artifact `json:"artifact"`
	Append     bool     `json:"append"`
	LastChunk  bool     `json:"last_chunk"`
}

// TaskEvent is the envelope placed on the wire for each item of a
// streaming response: exactly one of Task, Status, Artifact is set.
type TaskEvent struct {
	Kind     EventKind                `json:"kind"`
	Task     *Task                    `json:"task,omitempty"`
	Status   *TaskStatusUpdateEvent   `json:"status,omitempty"`
	Artifact *TaskArtifactUpdateEvent `json:"artifact,omitempty"`
}

// NewTaskEvent wraps a Task snapshot as a TaskEvent.
func NewTaskEvent(t *Task) TaskEvent {
	return TaskEvent{Kind: EventTask, Task: t}
}

// NewStatusEvent wraps a TaskStatusUpdateEvent as a TaskEvent.
func NewStatusEvent(e TaskStatusUpdateEvent) TaskEvent {
	return TaskEvent{Kind: EventTaskStatus, Status: &e}
}

// NewArtifactEvent wraps a TaskArtifactUpdateEvent as a TaskEvent.
func NewArtifactEvent(e TaskArtifactUpdateEvent) TaskEvent {
	return TaskEvent{Kind: EventTaskArtifact, Artifact: &e}
}
