// Package tools implements the two peer-invocation tools (C5) exposed to
// the reasoning model: agent_discover and agent_send_message. Both are
// instantiated per-caller-identity (an agent, or a user's chat session) and
// registered on an in-process MCP server (internal/mcptools) that the model
// gateway drives.
package tools

import (
	"github.com/kandev/agentnet/internal/common/logger"
	"github.com/kandev/agentnet/internal/filestore"
	"github.com/kandev/agentnet/internal/mcptools"
	"github.com/kandev/agentnet/internal/peerclient"
	"github.com/kandev/agentnet/internal/registryclient"
)

// Identity is the caller the tools act on behalf of: an agent invoking
// another agent, or the registry's chat endpoint acting for a user.
type Identity struct {
	SelfID string // AgentId or UserId
	Role   string // "agent" or "user"
}

// Toolset builds the agent_discover / agent_send_message handlers bound to
// one Identity, ready to register on an mcptools server.
type Toolset struct {
	identity Identity
	registry *registryclient.Client
	peers    *peerclient.Client
	files    *filestore.Store
	logger   *logger.Logger
}

// New builds a Toolset for the given identity.
func New(identity Identity, registry *registryclient.Client, files *filestore.Store, log *logger.Logger) *Toolset {
	if log == nil {
		log = logger.Default()
	}
	return &Toolset{
		identity: identity,
		registry: registry,
		peers:    peerclient.New(),
		files:    files,
		logger:   log,
	}
}

// Specs returns the ToolSpecs for both peer-invocation tools.
func (t *Toolset) Specs() []mcptools.ToolSpec {
	return []mcptools.ToolSpec{
		t.discoverSpec(),
		t.sendMessageSpec(),
	}
}
