// Package registryclient is the small client interface C3 (runtime) and C5
// (peer-invocation tools) use against C4 (the registry), breaking the
// natural cyclic reference between runtime and registry: the registry knows
// nothing about runtimes, only this package's request/response shapes.
package registryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kandev/agentnet/internal/a2a"
	"github.com/kandev/agentnet/internal/common/apierrors"
	"github.com/kandev/agentnet/internal/common/logger"
	"github.com/kandev/agentnet/internal/httpenv"
)

// DiscoveredAgent is one entry of a discover() response.
type DiscoveredAgent struct {
	AgentID string `json:"agent_id"`
	Name    string `json:"name"`
	URL     string `json:"url"`
}

// Client talks to C4's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// New builds a Client against the registry at baseURL.
func New(baseURL string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log,
	}
}

// Register registers an agent, returning its freshly allocated AgentId.
func (c *Client) Register(ctx context.Context, name, url, category string, expose bool, visibleTo []string) (string, error) {
	payload := map[string]any{
		"name": name, "url": url, "category": category, "expose": expose,
	}
	if visibleTo != nil {
		payload["visible_to"] = visibleTo
	}
	var out struct {
		AgentID string `json:"agent_id"`
	}
	if err := c.post(ctx, "/agents/register", payload, &out); err != nil {
		return "", err
	}
	return out.AgentID, nil
}

// Keepalive refreshes last_seen for agentID.
func (c *Client) Keepalive(ctx context.Context, agentID string) error {
	return c.post(ctx, "/agents/keepalive", map[string]any{"agent_id": agentID}, nil)
}

// Unregister removes agentID from the graph.
func (c *Client) Unregister(ctx context.Context, agentID string) error {
	return c.post(ctx, "/agents/unregister", map[string]any{"agent_id": agentID}, nil)
}

// Discover returns the public agents visible to agentID.
func (c *Client) Discover(ctx context.Context, agentID string) ([]DiscoveredAgent, error) {
	var out []DiscoveredAgent
	if err := c.post(ctx, "/agents/discover", map[string]any{"agent_id": agentID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddInteraction records a live call edge from src to dst.
func (c *Client) AddInteraction(ctx context.Context, srcID, dstID, message string) error {
	return c.post(ctx, "/interactions/add", map[string]any{
		"src_id": srcID, "dst_id": dstID, "message": message,
	}, nil)
}

// DeleteInteraction removes the first matching edge from src to dst.
func (c *Client) DeleteInteraction(ctx context.Context, srcID, dstID string) error {
	return c.post(ctx, "/interactions/delete", map[string]any{
		"src_id": srcID, "dst_id": dstID,
	}, nil)
}

// TaskCountAdd increments agentID's in-flight task counter.
func (c *Client) TaskCountAdd(ctx context.Context, agentID string) error {
	return c.post(ctx, "/task_count/add", map[string]any{"agent_id": agentID}, nil)
}

// TaskCountDelete decrements agentID's in-flight task counter, clamped at 0.
func (c *Client) TaskCountDelete(ctx context.Context, agentID string) error {
	return c.post(ctx, "/task_count/delete", map[string]any{"agent_id": agentID}, nil)
}

// ForwardTask forwards a full Task snapshot for userID.
func (c *Client) ForwardTask(ctx context.Context, userID string, task *a2a.Task) error {
	return c.post(ctx, "/events/task/"+userID, task, nil)
}

// ForwardTaskStatus forwards a status update for userID.
func (c *Client) ForwardTaskStatus(ctx context.Context, userID string, event a2a.TaskStatusUpdateEvent) error {
	return c.post(ctx, "/events/task_status/"+userID, event, nil)
}

// ForwardTaskArtifact forwards an artifact update for userID.
func (c *Client) ForwardTaskArtifact(ctx context.Context, userID string, event a2a.TaskArtifactUpdateEvent) error {
	return c.post(ctx, "/events/task_artifact/"+userID, event, nil)
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return apierrors.InternalError("encoding registry request", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return apierrors.ToolError("building registry request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierrors.ToolError(fmt.Sprintf("calling registry %s", path), err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env httpenv.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return apierrors.ToolError(fmt.Sprintf("decoding registry response from %s", path), err)
	}
	if env.Status != "success" {
		return apierrors.ToolError(env.Message, fmt.Errorf("registry %s returned status %q", path, env.Status))
	}
	if out != nil {
		if err := httpenv.DecodeContent(env, out); err != nil {
			return apierrors.ToolError(fmt.Sprintf("decoding registry content from %s", path), err)
		}
	}
	return nil
}
