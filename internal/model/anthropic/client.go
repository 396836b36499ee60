// Package anthropic implements model.Provider on top of the Anthropic
// Claude Messages API via github.com/anthropics/anthropic-sdk-go.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kandev/agentnet/internal/model"
)

// MessagesClient is the subset of the Anthropic SDK client this adapter
// depends on, letting tests substitute a fake.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Provider implements model.Provider against Claude Messages.
type Provider struct {
	msg         MessagesClient
	modelID     string
	maxTokens   int
	temperature float64
}

// Options configures the provider's defaults.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// New builds a Provider from an explicit MessagesClient, mainly for tests.
func New(msg MessagesClient, opts Options) (*Provider, error) {
	if msg == nil {
		return nil, errors.New("anthropic messages client is required")
	}
	if opts.Model == "" {
		return nil, errors.New("anthropic model identifier is required")
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Provider{msg: msg, modelID: opts.Model, maxTokens: maxTokens, temperature: opts.Temperature}, nil
}

// NewFromAPIKey builds a Provider from an API key, reading remaining client
// configuration (base URL, timeouts) from the SDK's own environment defaults.
func NewFromAPIKey(apiKey, modelID string, opts Options) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	opts.Model = modelID
	return New(&client.Messages, opts)
}

// Complete issues a single Messages.New call, encoding the gateway's
// provider-agnostic transcript and tool catalog into Anthropic's shapes and
// decoding the response back into a model.Choice.
func (p *Provider) Complete(ctx context.Context, messages []model.ChatMessage, tools []model.ToolDefinition) (model.Choice, error) {
	params, err := p.buildParams(messages, tools)
	if err != nil {
		return model.Choice{}, err
	}

	msg, err := p.msg.New(ctx, *params)
	if err != nil {
		return model.Choice{}, fmt.Errorf("anthropic messages.new: %w", err)
	}
	return translateMessage(msg)
}

func (p *Provider) buildParams(messages []model.ChatMessage, tools []model.ToolDefinition) (*sdk.MessageNewParams, error) {
	conversation, system, err := encodeMessages(messages)
	if err != nil {
		return nil, err
	}
	if len(conversation) == 0 {
		return nil, errors.New("anthropic: at least one user/assistant message is required")
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(p.modelID),
		MaxTokens: int64(p.maxTokens),
		Messages:  conversation,
	}
	if len(system) > 0 {
		params.System = system
	}
	if p.temperature > 0 {
		params.Temperature = sdk.Float(p.temperature)
	}
	if encoded := encodeTools(tools); len(encoded) > 0 {
		params.Tools = encoded
	}
	return &params, nil
}

func encodeMessages(messages []model.ChatMessage) ([]sdk.MessageParam, []sdk.TextBlockParam, error) {
	conversation := make([]sdk.MessageParam, 0, len(messages))
	system := make([]sdk.TextBlockParam, 0)

	for _, m := range messages {
		switch m.Role {
		case "system":
			if m.Text != "" {
				system = append(system, sdk.TextBlockParam{Text: m.Text})
			}
			continue
		case "tool":
			conversation = append(conversation, sdk.NewUserMessage(
				sdk.NewToolResultBlock(m.ToolCallID, m.Text, false),
			))
			continue
		}

		blocks, err := encodeContentBlocks(m)
		if err != nil {
			return nil, nil, err
		}
		if len(m.ToolCalls) > 0 {
			for _, call := range m.ToolCalls {
				var input any
				if len(call.Arguments) > 0 {
					if err := json.Unmarshal(call.Arguments, &input); err != nil {
						input = string(call.Arguments)
					}
				}
				blocks = append(blocks, sdk.NewToolUseBlock(call.ID, input, call.Name))
			}
		}
		if len(blocks) == 0 {
			continue
		}

		switch m.Role {
		case "user":
			conversation = append(conversation, sdk.NewUserMessage(blocks...))
		case "assistant":
			conversation = append(conversation, sdk.NewAssistantMessage(blocks...))
		default:
			return nil, nil, fmt.Errorf("anthropic: unsupported message role %q", m.Role)
		}
	}
	return conversation, system, nil
}

func encodeContentBlocks(m model.ChatMessage) ([]sdk.ContentBlockParamUnion, error) {
	var blocks []sdk.ContentBlockParamUnion
	if m.Text != "" {
		blocks = append(blocks, sdk.NewTextBlock(m.Text))
	}
	for _, part := range m.Parts {
		switch part.Kind {
		case model.ContentText:
			if part.Text != "" {
				blocks = append(blocks, sdk.NewTextBlock(part.Text))
			}
		case model.ContentImageURL:
			block, err := encodeImageBlock(part.ImageURL)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
		case model.ContentInputAudio:
			// The Messages API has no native audio block; fall back to a text
			// description so the turn still carries the reference.
			blocks = append(blocks, sdk.NewTextBlock("[audio content: "+part.InputAudio+"]"))
		default:
			return nil, fmt.Errorf("anthropic: unsupported content part kind %q", part.Kind)
		}
	}
	return blocks, nil
}

// encodeImageBlock builds an image content block from either a true
// https:// URL or a "data:<mime>;base64,<data>" URL (the shape
// internal/runtime/task.go builds for resolved FileParts).
func encodeImageBlock(imageURL string) (sdk.ContentBlockParamUnion, error) {
	if strings.HasPrefix(imageURL, "https://") || strings.HasPrefix(imageURL, "http://") {
		return sdk.NewImageBlock(sdk.URLImageSourceParam{Type: "url", URL: imageURL}), nil
	}

	rest, ok := strings.CutPrefix(imageURL, "data:")
	if !ok {
		return sdk.ContentBlockParamUnion{}, fmt.Errorf("anthropic: unsupported image url %q", imageURL)
	}
	parts := strings.SplitN(rest, ";base64,", 2)
	if len(parts) != 2 {
		return sdk.ContentBlockParamUnion{}, errors.New("anthropic: invalid data url, missing ';base64,' separator")
	}
	mediaType, err := mimeTypeToAnthropicMediaType(parts[0])
	if err != nil {
		return sdk.ContentBlockParamUnion{}, err
	}
	return sdk.NewImageBlock(sdk.Base64ImageSourceParam{
		Type:      "base64",
		MediaType: mediaType,
		Data:      parts[1],
	}), nil
}

func mimeTypeToAnthropicMediaType(mimeType string) (sdk.Base64ImageSourceMediaType, error) {
	switch strings.ToLower(mimeType) {
	case "image/jpeg":
		return sdk.Base64ImageSourceMediaTypeImageJPEG, nil
	case "image/png":
		return sdk.Base64ImageSourceMediaTypeImagePNG, nil
	case "image/gif":
		return sdk.Base64ImageSourceMediaTypeImageGIF, nil
	case "image/webp":
		return sdk.Base64ImageSourceMediaTypeImageWebP, nil
	default:
		return "", fmt.Errorf("anthropic: unsupported image mime type %q", mimeType)
	}
}

func encodeTools(defs []model.ToolDefinition) []sdk.ToolUnionParam {
	if len(defs) == 0 {
		return nil
	}
	out := make([]sdk.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		schema := sdk.ToolInputSchemaParam{}
		if len(def.Parameters) > 0 {
			var m map[string]any
			if err := json.Unmarshal(def.Parameters, &m); err == nil {
				schema.ExtraFields = m
			}
		}
		u := sdk.ToolUnionParamOfTool(schema, def.Name)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(def.Description)
		}
		out = append(out, u)
	}
	return out
}

func translateMessage(msg *sdk.Message) (model.Choice, error) {
	if msg == nil {
		return model.Choice{}, errors.New("anthropic: nil response message")
	}

	result := model.ChatMessage{Role: "assistant"}
	var toolCalls []model.ToolCall
	var text string

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text += block.Text
		case "tool_use":
			payload, _ := json.Marshal(block.Input)
			toolCalls = append(toolCalls, model.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: payload,
			})
		}
	}
	result.Text = text
	result.ToolCalls = toolCalls

	finish := model.FinishStop
	if len(toolCalls) > 0 {
		finish = model.FinishToolCalls
	}
	return model.Choice{Message: result, FinishReason: finish}, nil
}
