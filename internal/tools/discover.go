package tools

import (
	"context"
	"encoding/json"

	"github.com/kandev/agentnet/internal/common/apierrors"
	"github.com/kandev/agentnet/internal/mcptools"
)

func (t *Toolset) discoverSpec() mcptools.ToolSpec {
	return mcptools.ToolSpec{
		Name:        "agent_discover",
		Description: "Discover other agents visible to this agent, returning each peer's URL, name, and agent card.",
		Handler:     t.handleDiscover,
	}
}

func (t *Toolset) handleDiscover(ctx context.Context, _ json.RawMessage) (string, error) {
	peers, err := t.registry.Discover(ctx, t.identity.SelfID)
	if err != nil {
		return "", apierrors.ToolError("agent_discover: discovery failed", err)
	}

	type result struct {
		URL  string          `json:"url"`
		Name string          `json:"name"`
		Card json.RawMessage `json:"card,omitempty"`
	}
	out := make([]result, 0, len(peers))
	for _, peer := range peers {
		card, err := t.peers.Card(ctx, peer.URL)
		if err != nil {
			t.logger.WithError(err).Warn("agent_discover: could not fetch card, returning without it")
			out = append(out, result{URL: peer.URL, Name: peer.Name})
			continue
		}
		encoded, err := json.Marshal(card)
		if err != nil {
			out = append(out, result{URL: peer.URL, Name: peer.Name})
			continue
		}
		out = append(out, result{URL: peer.URL, Name: peer.Name, Card: encoded})
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return "", apierrors.InternalError("agent_discover: encoding result", err)
	}
	return string(payload), nil
}
