package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/kandev/agentnet/internal/a2a"
	"github.com/kandev/agentnet/internal/common/apierrors"
	"github.com/kandev/agentnet/internal/common/idgen"
	"github.com/kandev/agentnet/internal/model"
)

// SendMessageRequest is the body of both /tasks/send and the first frame of
// /tasks/send_streaming.
type SendMessageRequest struct {
	Parts     []a2a.Part `json:"parts"`
	TaskID    *string    `json:"task_id,omitempty"`
	ContextID *string    `json:"context_id,omitempty"`
}

// EventSink receives the TaskEvents HandleMessage emits. The streaming endpoint
// forwards each one over its websocket; the non-streaming endpoint uses a
// no-op sink and relies on HandleMessage's returned *a2a.Task.
type EventSink interface {
	Emit(event a2a.TaskEvent) error
}

type noopSink struct{}

func (noopSink) Emit(a2a.TaskEvent) error { return nil }

// HandleMessage implements spec.md §4.3's per-request state machine: locate
// or create the task, bump the task counter, resolve file references,
// drive the model gateway, and record the outcome as an artifact plus a
// terminal status. Errors encountered while processing (bad file
// reference, gateway failure) are recorded as a failed task and returned
// without an error value; only a structural problem (unknown task_id)
// returns an error.
func (r *Runtime) HandleMessage(ctx context.Context, req SendMessageRequest, sink EventSink) (*a2a.Task, error) {
	if sink == nil {
		sink = noopSink{}
	}

	t, err := r.lookupOrCreateTask(req, sink)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		r.fail(t, apierrors.InternalError("waiting for a free execution slot", ctx.Err()), sink)
		return t.task, nil
	}

	if err := r.registry.TaskCountAdd(ctx, r.agentID); err != nil {
		r.logger.WithError(err).Warn("task_count/add failed")
	}
	defer func() {
		if err := r.registry.TaskCountDelete(ctx, r.agentID); err != nil {
			r.logger.WithError(err).Warn("task_count/delete failed")
		}
	}()

	r.transition(t, a2a.TaskWorking, nil, sink)

	contentParts, err := r.resolveFileParts(req.Parts)
	if err != nil {
		r.fail(t, err, sink)
		return t.task, nil
	}

	t.transcript = append(t.transcript, model.ChatMessage{Role: string(a2a.RoleUser), Parts: contentParts})

	transport, closeTransport, err := r.newToolTransport(ctx)
	if err != nil {
		r.fail(t, err, sink)
		return t.task, nil
	}
	defer closeTransport()

	updated, choice, err := r.gateway.Chat(ctx, t.transcript, transport)
	if err != nil {
		r.fail(t, err, sink)
		return t.task, nil
	}
	t.transcript = updated

	artifact := a2a.Artifact{
		ArtifactID: idgen.New(),
		Name:       r.personality.Name + " response",
		Parts:      []a2a.Part{a2a.NewTextPart(choice.Message.Text)},
	}
	_ = t.task.AppendArtifact(artifact, false)
	_ = sink.Emit(a2a.NewArtifactEvent(a2a.TaskArtifactUpdateEvent{
		TaskID: t.task.ID, Artifact: artifact, Append: false, LastChunk: true,
	}))

	msg := &a2a.Message{Role: a2a.RoleAssistant, Parts: []a2a.Part{a2a.NewTextPart(choice.Message.Text)}, MessageID: idgen.New()}
	r.transition(t, a2a.TaskCompleted, msg, sink)
	return t.task, nil
}

func (r *Runtime) lookupOrCreateTask(req SendMessageRequest, sink EventSink) (*trackedTask, error) {
	if req.TaskID != nil {
		r.mu.RLock()
		t, ok := r.tasks[*req.TaskID]
		r.mu.RUnlock()
		if !ok {
			return nil, apierrors.NotFound("task", *req.TaskID)
		}
		return t, nil
	}

	taskID := idgen.New()
	contextID := taskID
	if req.ContextID != nil {
		contextID = *req.ContextID
	}
	task := a2a.NewTask(taskID, contextID)
	t := &trackedTask{
		task:       task,
		transcript: []model.ChatMessage{{Role: string(a2a.RoleSystem), Text: r.personality.SystemPrompt}},
	}

	r.mu.Lock()
	r.tasks[taskID] = t
	r.mu.Unlock()

	_ = sink.Emit(a2a.NewTaskEvent(task))
	return t, nil
}

// transition applies a state change and emits the corresponding status
// event. Called only while t.mu is held.
func (r *Runtime) transition(t *trackedTask, state a2a.TaskState, msg *a2a.Message, sink EventSink) {
	t.task.SetState(state, msg)
	_ = sink.Emit(a2a.NewStatusEvent(a2a.TaskStatusUpdateEvent{
		TaskID: t.task.ID, State: state, Message: msg, Final: state.IsTerminal(),
	}))
}

func (r *Runtime) fail(t *trackedTask, cause error, sink EventSink) {
	msg := &a2a.Message{Role: a2a.RoleAssistant, Parts: []a2a.Part{a2a.NewTextPart(cause.Error())}, MessageID: idgen.New()}
	r.transition(t, a2a.TaskFailed, msg, sink)
	r.logger.WithError(cause).Warn("task failed", zap.String("task_id", t.task.ID))
}

// resolveFileParts resolves every FileId-referencing FilePart into inline
// bytes via C1, rejecting unsupported media types, and appends one
// multimodal content part per resolved file plus a synthetic text part
// announcing its id (spec.md §4.3), alongside the concatenated user text.
func (r *Runtime) resolveFileParts(parts []a2a.Part) ([]model.ContentPart, error) {
	var out []model.ContentPart

	if text := a2a.ConcatText(parts); text != "" {
		out = append(out, model.ContentPart{Kind: model.ContentText, Text: text})
	}

	for _, p := range parts {
		if !p.IsFile() {
			continue
		}
		mimeType := p.MimeType
		payload := p.Bytes
		fileID := p.FileID

		if p.HasFileRef() {
			data, mediaType, err := r.files.Get(p.FileID)
			if err != nil {
				return nil, apierrors.InvalidInput("unknown file reference " + p.FileID)
			}
			payload = data
			mimeType = mediaType
		}

		if !r.mediaTypeSupported(mimeType) {
			return nil, apierrors.InvalidInput("unsupported media type " + mimeType)
		}

		part := a2a.NewInlineFilePart(mimeType, payload)
		out = append(out, contentPartForFile(part))

		if fileID != "" {
			out = append(out, model.ContentPart{Kind: model.ContentText, Text: "the ID of this file is " + fileID})
		}
	}
	return out, nil
}

func contentPartForFile(part a2a.Part) model.ContentPart {
	if isAudio(part.MimeType) {
		return model.ContentPart{Kind: model.ContentInputAudio, InputAudio: part.Base64()}
	}
	return model.ContentPart{Kind: model.ContentImageURL, ImageURL: "data:" + part.MimeType + ";base64," + part.Base64()}
}

func isAudio(mimeType string) bool {
	return len(mimeType) >= 6 && mimeType[:6] == "audio/"
}

func (r *Runtime) mediaTypeSupported(mimeType string) bool {
	if len(r.personality.SupportedMediaTypes) == 0 {
		return true
	}
	for _, m := range r.personality.SupportedMediaTypes {
		if m == mimeType {
			return true
		}
	}
	return false
}

// GetTask returns a snapshot of a tracked task.
func (r *Runtime) GetTask(taskID string) (*a2a.Task, error) {
	r.mu.RLock()
	t, ok := r.tasks[taskID]
	r.mu.RUnlock()
	if !ok {
		return nil, apierrors.NotFound("task", taskID)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	snapshot := *t.task
	return &snapshot, nil
}
