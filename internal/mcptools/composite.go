package mcptools

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kandev/agentnet/internal/common/apierrors"
	"github.com/kandev/agentnet/internal/common/logger"
	"github.com/kandev/agentnet/internal/model"
)

// CompositeTransport merges several model.Transport catalogs into one, for
// a GenericAgentRuntime that equips its own tool call with both the
// peer-invocation tools and any configured auxiliary mcp.<port> services
// (spec.md §6 "Configuration"). The first transport to advertise a given
// tool name wins; a later collision is logged and otherwise ignored,
// mirroring the teacher's mcp.Manager tool-registry collision handling.
type CompositeTransport struct {
	transports []model.Transport
	logger     *logger.Logger

	mu    sync.RWMutex
	owner map[string]model.Transport
}

// NewCompositeTransport merges transports in priority order.
func NewCompositeTransport(log *logger.Logger, transports ...model.Transport) *CompositeTransport {
	if log == nil {
		log = logger.Default()
	}
	return &CompositeTransport{transports: transports, logger: log, owner: make(map[string]model.Transport)}
}

// ListTools concatenates every member transport's catalog, recording which
// transport owns each tool name for CallTool routing.
func (c *CompositeTransport) ListTools(ctx context.Context) ([]model.ToolDefinition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.owner = make(map[string]model.Transport)
	var all []model.ToolDefinition
	for _, t := range c.transports {
		defs, err := t.ListTools(ctx)
		if err != nil {
			return nil, apierrors.ToolError("listing tools from an auxiliary mcp transport", err)
		}
		for _, d := range defs {
			if _, exists := c.owner[d.Name]; exists {
				c.logger.Warn("duplicate tool name across mcp transports, keeping first: " + d.Name)
				continue
			}
			c.owner[d.Name] = t
			all = append(all, d)
		}
	}
	return all, nil
}

// CallTool routes to whichever transport advertised name in the last
// ListTools call.
func (c *CompositeTransport) CallTool(ctx context.Context, name string, arguments json.RawMessage) (string, error) {
	c.mu.RLock()
	t, ok := c.owner[name]
	c.mu.RUnlock()
	if !ok {
		return "", apierrors.ToolError("no mcp transport advertises tool "+name, nil)
	}
	return t.CallTool(ctx, name, arguments)
}
