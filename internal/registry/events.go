package registry

import (
	"time"

	"github.com/kandev/agentnet/internal/a2a"
	"github.com/kandev/agentnet/internal/common/apierrors"
)

// userNode looks up userID and rejects anything but a user node. spec.md
// §9's open question: the source sometimes accepted events addressed to
// public agents; this implementation surfaces that as InvalidRole instead
// of silently accepting it.
func (g *Graph) userNode(userID string) (*Node, error) {
	n, ok := g.nodes[userID]
	if !ok {
		return nil, apierrors.NotFound("user", userID)
	}
	if n.Kind != NodeUser {
		return nil, apierrors.InvalidRole("events: " + userID + " is not a user node")
	}
	return n, nil
}

// ForwardTask stores a full Task snapshot for userID, stamping it with the
// ingestion time and overwriting any prior copy (spec.md §4.4).
func (g *Graph) ForwardTask(userID string, task *a2a.Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	user, err := g.userNode(userID)
	if err != nil {
		return err
	}
	stamped := *task
	stamped.CreatedAt = time.Now().UTC()
	user.Tasks[task.ID] = &stamped
	return nil
}

// ForwardTaskStatus applies a status update to an already-forwarded task.
// A no-op once the task is terminal (spec.md §8 "terminal immutability").
func (g *Graph) ForwardTaskStatus(userID string, event a2a.TaskStatusUpdateEvent) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	user, err := g.userNode(userID)
	if err != nil {
		return err
	}
	task, ok := user.Tasks[event.TaskID]
	if !ok {
		return apierrors.NotFound("task", event.TaskID)
	}
	task.SetState(event.State, event.Message)
	return nil
}

// ForwardTaskArtifact applies an artifact mutation to an already-forwarded
// task.
func (g *Graph) ForwardTaskArtifact(userID string, event a2a.TaskArtifactUpdateEvent) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	user, err := g.userNode(userID)
	if err != nil {
		return err
	}
	task, ok := user.Tasks[event.TaskID]
	if !ok {
		return apierrors.NotFound("task", event.TaskID)
	}
	if err := task.AppendArtifact(event.Artifact, event.Append); err != nil {
		return apierrors.InvalidInput(err.Error())
	}
	return nil
}

// GetTasks returns a snapshot of userID's stored tasks.
func (g *Graph) GetTasks(userID string) (map[string]*a2a.Task, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	user, err := g.userNode(userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*a2a.Task, len(user.Tasks))
	for id, t := range user.Tasks {
		copied := *t
		out[id] = &copied
	}
	return out, nil
}

// GetArtifacts flattens every artifact across userID's stored tasks.
func (g *Graph) GetArtifacts(userID string) ([]a2a.Artifact, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	user, err := g.userNode(userID)
	if err != nil {
		return nil, err
	}
	var out []a2a.Artifact
	for _, t := range user.Tasks {
		out = append(out, t.Artifacts...)
	}
	return out, nil
}

// GetAllTasks returns every user's stored tasks, keyed by user id.
func (g *Graph) GetAllTasks() map[string]map[string]*a2a.Task {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]map[string]*a2a.Task)
	for id, n := range g.nodes {
		if n.Kind != NodeUser {
			continue
		}
		tasks := make(map[string]*a2a.Task, len(n.Tasks))
		for tid, t := range n.Tasks {
			copied := *t
			tasks[tid] = &copied
		}
		out[id] = tasks
	}
	return out
}

// GetAllArtifacts returns every user's flattened artifact list, keyed by
// user id.
func (g *Graph) GetAllArtifacts() map[string][]a2a.Artifact {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string][]a2a.Artifact)
	for id, n := range g.nodes {
		if n.Kind != NodeUser {
			continue
		}
		var artifacts []a2a.Artifact
		for _, t := range n.Tasks {
			artifacts = append(artifacts, t.Artifacts...)
		}
		out[id] = artifacts
	}
	return out
}

// UserRegister creates a user node with an empty conversation map.
func (g *Graph) UserRegister(userID, userName string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[userID]; ok {
		return apierrors.AlreadyExists("user", userID)
	}
	g.nodes[userID] = newUserNode(userID, userName)
	return nil
}

// UserUnregister removes a user node.
func (g *Graph) UserUnregister(userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[userID]
	if !ok {
		return apierrors.NotFound("user", userID)
	}
	if n.Kind != NodeUser {
		return apierrors.InvalidRole("unregister: " + userID + " is not a user")
	}
	delete(g.nodes, userID)
	return nil
}

// UserUnregisterAll removes every user node.
func (g *Graph) UserUnregisterAll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for id, n := range g.nodes {
		if n.Kind == NodeUser {
			delete(g.nodes, id)
		}
	}
}

// Conversation returns userID's messages for conversationID, creating the
// conversation (seeded with seed, if non-empty) if it doesn't exist yet.
func (g *Graph) Conversation(userID, conversationID string, seed []a2a.Message) ([]a2a.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	user, err := g.userNode(userID)
	if err != nil {
		return nil, err
	}
	messages, ok := user.Conversations[conversationID]
	if !ok {
		messages = append([]a2a.Message{}, seed...)
		user.Conversations[conversationID] = messages
	}
	return messages, nil
}

// AppendConversation replaces userID's stored transcript for
// conversationID with messages.
func (g *Graph) AppendConversation(userID, conversationID string, messages []a2a.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	user, err := g.userNode(userID)
	if err != nil {
		return err
	}
	user.Conversations[conversationID] = messages
	return nil
}

// ListConversations returns userID's conversation ids.
func (g *Graph) ListConversations(userID string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	user, err := g.userNode(userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(user.Conversations))
	for id := range user.Conversations {
		out = append(out, id)
	}
	return out, nil
}

// Messages returns userID's transcript for conversationID.
func (g *Graph) Messages(userID, conversationID string) ([]a2a.Message, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	user, err := g.userNode(userID)
	if err != nil {
		return nil, err
	}
	messages, ok := user.Conversations[conversationID]
	if !ok {
		return nil, apierrors.NotFound("conversation", conversationID)
	}
	return messages, nil
}
