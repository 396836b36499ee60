package registry

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/kandev/agentnet/internal/a2a"
	"github.com/kandev/agentnet/internal/common/apierrors"
	"github.com/kandev/agentnet/internal/common/idgen"
	"github.com/kandev/agentnet/internal/httpenv"
	"github.com/kandev/agentnet/internal/mcptools"
	"github.com/kandev/agentnet/internal/model"
	"github.com/kandev/agentnet/internal/registryclient"
	"github.com/kandev/agentnet/internal/tools"
)

type chatRequest struct {
	UserID         string     `json:"user_id" binding:"required"`
	ConversationID string     `json:"conversation_id" binding:"required"`
	Message        []a2a.Part `json:"message" binding:"required"`
}

// handleUserChat is the system entry point (spec.md §4.4 "User sessions"):
// load or create the conversation seeded with the planner system prompt,
// convert Parts to model-gateway content (registering inline FileParts
// into C1 and injecting synthetic "file id is ..." text so the planner
// can re-reference them), append the user message, and drive C2 with a
// peer-invocation tool scoped to this user.
func (s *Service) handleUserChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpenv.Error(c, apierrors.InvalidInput(err.Error()))
		return
	}

	if _, err := s.userNodeExists(req.UserID); err != nil {
		httpenv.Error(c, err)
		return
	}

	seed := []a2a.Message{{
		Role:      a2a.RoleSystem,
		Parts:     []a2a.Part{a2a.NewTextPart(s.plannerPrompt())},
		MessageID: idgen.New(),
	}}
	history, err := s.Graph.Conversation(req.UserID, req.ConversationID, seed)
	if err != nil {
		httpenv.Error(c, err)
		return
	}

	contentParts, err := s.rewriteInboundParts(req.Message)
	if err != nil {
		httpenv.Error(c, err)
		return
	}
	history = append(history, a2a.Message{
		Role:      a2a.RoleUser,
		Parts:     contentParts,
		MessageID: idgen.New(),
	})

	transcript := toChatMessages(history)
	toolset := tools.New(
		tools.Identity{SelfID: req.UserID, Role: "user"},
		registryclient.New(s.SelfURL, s.logger),
		s.Files,
		s.logger,
	)
	mcpServer := mcptools.NewServer("agentnet-user-chat", "1.0.0", toolset.Specs())

	ctx := c.Request.Context()
	transport, err := mcptools.NewInProcessTransport(ctx, mcpServer, "agentnet-chat-client", "1.0.0")
	if err != nil {
		httpenv.Error(c, apierrors.GatewayError("opening tool transport", err))
		return
	}
	defer transport.Close()

	updated, choice, err := s.Gateway.Chat(ctx, transcript, transport)
	if err != nil {
		httpenv.Error(c, err)
		return
	}

	finalText := choice.Message.Text
	updatedHistory := fromChatMessages(updated)
	if err := s.Graph.AppendConversation(req.UserID, req.ConversationID, updatedHistory); err != nil {
		httpenv.Error(c, err)
		return
	}

	httpenv.OK(c, finalText)
}

func (s *Service) userNodeExists(userID string) (*Node, error) {
	s.Graph.mu.RLock()
	defer s.Graph.mu.RUnlock()
	return s.Graph.userNode(userID)
}

func (s *Service) plannerPrompt() string {
	role := s.Config.System.Role
	if prompt, ok := s.Config.Prompts[role]; ok && prompt != "" {
		return prompt
	}
	if prompt, ok := s.Config.Prompts["planner"]; ok {
		return prompt
	}
	return "You are the planner for a multi-agent network."
}

// rewriteInboundParts registers any inline FilePart into C1, returning
// the parts rewritten to FileId references plus a synthetic text part per
// file announcing its id, so the planner can re-reference it later.
func (s *Service) rewriteInboundParts(parts []a2a.Part) ([]a2a.Part, error) {
	out := make([]a2a.Part, 0, len(parts))
	for _, p := range parts {
		if !p.IsFile() || !p.HasInlinePayload() {
			out = append(out, p)
			continue
		}
		id, err := s.Files.Put(p.Bytes, p.MimeType)
		if err != nil {
			return nil, apierrors.InternalError("registering inbound file", err)
		}
		out = append(out, a2a.NewFileRefPart(p.MimeType, id))
		out = append(out, a2a.NewTextPart(fmt.Sprintf("the ID of this file is %s", id)))
	}
	return out, nil
}

func toChatMessages(history []a2a.Message) []model.ChatMessage {
	out := make([]model.ChatMessage, 0, len(history))
	for _, m := range history {
		out = append(out, model.ChatMessage{
			Role: string(m.Role),
			Text: a2a.ConcatText(m.Parts),
		})
	}
	return out
}

func fromChatMessages(messages []model.ChatMessage) []a2a.Message {
	out := make([]a2a.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, a2a.Message{
			Role:      a2a.Role(m.Role),
			Parts:     []a2a.Part{a2a.NewTextPart(m.Text)},
			MessageID: idgen.New(),
		})
	}
	return out
}
