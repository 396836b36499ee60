package tools

import (
	"context"
	"encoding/json"

	"github.com/kandev/agentnet/internal/a2a"
	"github.com/kandev/agentnet/internal/common/apierrors"
	"github.com/kandev/agentnet/internal/mcptools"
	"github.com/kandev/agentnet/internal/peerclient"
)

type sendMessageArgs struct {
	AgentURL  string     `json:"agent_url"`
	Parts     []a2a.Part `json:"parts"`
	TaskID    *string    `json:"task_id,omitempty"`
	ContextID *string    `json:"context_id,omitempty"`
}

func (t *Toolset) sendMessageSpec() mcptools.ToolSpec {
	return mcptools.ToolSpec{
		Name:        "agent_send_message",
		Description: "Send a message to another agent by URL, stream and forward its task events, and return the final task.",
		Handler:     t.handleSendMessage,
	}
}

// handleSendMessage implements C5's agent_send_message state machine:
// acquire_edge -> rewrite_files -> open_stream -> (receive_event ->
// forward_to_registry)* -> end_stream -> fetch_task -> release_edge.
// release_edge always runs, on success or failure.
func (t *Toolset) handleSendMessage(ctx context.Context, raw json.RawMessage) (string, error) {
	var args sendMessageArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", apierrors.InvalidInput("agent_send_message: malformed arguments")
	}
	if args.AgentURL == "" {
		return "", apierrors.InvalidInput("agent_send_message: agent_url is required")
	}

	dstID, err := t.resolveDestinationID(ctx, args.AgentURL)
	if err != nil {
		return "", err
	}

	if err := t.registry.AddInteraction(ctx, t.identity.SelfID, dstID, a2a.ConcatText(args.Parts)); err != nil {
		return "", apierrors.ToolError("agent_send_message: could not acquire interaction edge", err)
	}
	defer func() {
		_ = t.registry.DeleteInteraction(ctx, t.identity.SelfID, dstID)
	}()

	if err := t.rewriteFileParts(ctx, args.Parts); err != nil {
		return "", err
	}

	task, err := t.streamAndForward(ctx, args)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return "", apierrors.InternalError("agent_send_message: encoding final task", err)
	}
	return string(payload), nil
}

// resolveDestinationID scans this identity's discovery results for a URL
// match, per spec: the tool fails if the destination is not discoverable.
func (t *Toolset) resolveDestinationID(ctx context.Context, agentURL string) (string, error) {
	peers, err := t.registry.Discover(ctx, t.identity.SelfID)
	if err != nil {
		return "", apierrors.ToolError("agent_send_message: discovery failed", err)
	}
	for _, peer := range peers {
		if peer.URL == agentURL {
			return peer.AgentID, nil
		}
	}
	return "", apierrors.ToolError("agent_send_message: destination not found via discovery", nil)
}

// rewriteFileParts resolves any FilePart whose payload is a FileId into
// inline bytes, so the receiver gets a self-contained message.
func (t *Toolset) rewriteFileParts(ctx context.Context, parts []a2a.Part) error {
	for i, part := range parts {
		if !part.IsFile() || !part.HasFileRef() {
			continue
		}
		data, mediaType, err := t.files.Get(part.FileID)
		if err != nil {
			return apierrors.ToolError("agent_send_message: resolving file reference "+part.FileID, err)
		}
		parts[i] = a2a.NewInlineFilePart(mediaType, data)
	}
	return nil
}

func (t *Toolset) streamAndForward(ctx context.Context, args sendMessageArgs) (*a2a.Task, error) {
	stream, err := peerclient.StreamSendMessage(ctx, args.AgentURL, peerclient.SendMessageRequest{
		Parts:     args.Parts,
		TaskID:    args.TaskID,
		ContextID: args.ContextID,
	})
	if err != nil {
		return nil, apierrors.ToolError("agent_send_message: could not open stream to "+args.AgentURL, err)
	}
	defer stream.Close()

	var taskID string
	for {
		event, ok, err := stream.Next()
		if err != nil {
			return nil, apierrors.ToolError("agent_send_message: stream broke", err)
		}
		if !ok {
			break
		}

		switch {
		case event.Task != nil:
			taskID = event.Task.ID
			if err := t.registry.ForwardTask(ctx, t.identity.SelfID, event.Task); err != nil {
				t.logger.WithError(err).Warn("agent_send_message: could not forward task event")
			}
		case event.Status != nil:
			taskID = event.Status.TaskID
			if err := t.registry.ForwardTaskStatus(ctx, t.identity.SelfID, *event.Status); err != nil {
				t.logger.WithError(err).Warn("agent_send_message: could not forward status event")
			}
			if event.Status.State.IsTerminal() {
				goto done
			}
		case event.Artifact != nil:
			taskID = event.Artifact.TaskID
			if err := t.registry.ForwardTaskArtifact(ctx, t.identity.SelfID, *event.Artifact); err != nil {
				t.logger.WithError(err).Warn("agent_send_message: could not forward artifact event")
			}
		}
	}
done:

	if taskID == "" {
		return nil, apierrors.ToolError("agent_send_message: destination never emitted a task", nil)
	}
	task, err := t.peers.GetTask(ctx, args.AgentURL, taskID)
	if err != nil {
		return nil, apierrors.ToolError("agent_send_message: fetching final task", err)
	}
	return task, nil
}
