// Package peerclient is what C5's agent_send_message tool (and agent_discover's
// card fetch) use to talk directly to another agent's own HTTP/websocket
// endpoints — as opposed to registryclient, which talks to C4.
package peerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kandev/agentnet/internal/a2a"
	"github.com/kandev/agentnet/internal/common/apierrors"
)

// Client talks to one destination agent's own endpoints.
type Client struct {
	httpClient *http.Client
}

// New builds a peer Client.
func New() *Client {
	return &Client{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

// Card fetches the destination's agent card from its well-known endpoint.
func (c *Client) Card(ctx context.Context, agentURL string) (*a2a.AgentCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(agentURL, "/")+"/.well-known/agent-card", nil)
	if err != nil {
		return nil, apierrors.ToolError("building card request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.ToolError("fetching agent card from "+agentURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierrors.ToolError(fmt.Sprintf("agent card request to %s failed with status %d", agentURL, resp.StatusCode), nil)
	}

	var card a2a.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, apierrors.ToolError("decoding agent card from "+agentURL, err)
	}
	return &card, nil
}

// GetTask fetches the current snapshot of taskID from the destination.
func (c *Client) GetTask(ctx context.Context, agentURL, taskID string) (*a2a.Task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(agentURL, "/")+"/tasks/"+taskID, nil)
	if err != nil {
		return nil, apierrors.ToolError("building get_task request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.ToolError("fetching task from "+agentURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierrors.ToolError(fmt.Sprintf("get_task against %s failed with status %d", agentURL, resp.StatusCode), nil)
	}

	var task a2a.Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, apierrors.ToolError("decoding task from "+agentURL, err)
	}
	return &task, nil
}

// SendMessageRequest is the payload for both SendMessage and
// StreamSendMessage.
type SendMessageRequest struct {
	Parts     []a2a.Part `json:"parts"`
	TaskID    *string    `json:"task_id,omitempty"`
	ContextID *string    `json:"context_id,omitempty"`
}

// SendMessage invokes the destination's non-streaming send_message endpoint
// and returns the final task.
func (c *Client) SendMessage(ctx context.Context, agentURL string, req SendMessageRequest) (*a2a.Task, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, apierrors.InternalError("encoding send_message request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(agentURL, "/")+"/tasks/send", bytes.NewReader(body))
	if err != nil {
		return nil, apierrors.ToolError("building send_message request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apierrors.ToolError("calling send_message on "+agentURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierrors.ToolError(fmt.Sprintf("send_message against %s failed with status %d", agentURL, resp.StatusCode), nil)
	}

	var task a2a.Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, apierrors.ToolError("decoding send_message response from "+agentURL, err)
	}
	return &task, nil
}

// EventStream is an open streaming session against a destination's
// send_message_streaming endpoint: Next blocks for the next a2a.TaskEvent
// until the stream ends (a terminal status update or a transport error).
type EventStream struct {
	conn *websocket.Conn
}

// StreamSendMessage opens a websocket to the destination's streaming task
// endpoint and sends the initial request.
func StreamSendMessage(ctx context.Context, agentURL string, req SendMessageRequest) (*EventStream, error) {
	wsURL := toWebsocketURL(agentURL) + "/tasks/send_streaming"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, apierrors.ToolError("opening streaming session to "+agentURL, err)
	}
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
	}

	if err := conn.WriteJSON(req); err != nil {
		_ = conn.Close()
		return nil, apierrors.ToolError("sending initial streaming request to "+agentURL, err)
	}
	return &EventStream{conn: conn}, nil
}

// Next reads and decodes the next TaskEvent frame. It returns
// (event, false, nil) when the stream has ended normally.
func (s *EventStream) Next() (a2a.TaskEvent, bool, error) {
	var event a2a.TaskEvent
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return a2a.TaskEvent{}, false, nil
		}
		return a2a.TaskEvent{}, false, apierrors.ToolError("reading streaming event", err)
	}
	if err := json.Unmarshal(data, &event); err != nil {
		return a2a.TaskEvent{}, false, apierrors.ToolError("decoding streaming event", err)
	}
	return event, true, nil
}

// Close closes the underlying websocket connection.
func (s *EventStream) Close() error {
	return s.conn.Close()
}

func toWebsocketURL(agentURL string) string {
	trimmed := strings.TrimRight(agentURL, "/")
	switch {
	case strings.HasPrefix(trimmed, "https://"):
		return "wss://" + strings.TrimPrefix(trimmed, "https://")
	case strings.HasPrefix(trimmed, "http://"):
		return "ws://" + strings.TrimPrefix(trimmed, "http://")
	default:
		return trimmed
	}
}
