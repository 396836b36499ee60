// Package runtime implements the agent runtime (C3): a single
// GenericAgentRuntime hosts one worker, registering with C4, running a
// keep-alive loop, and exposing the streaming task protocol (spec.md §4.3)
// at its own HTTP/websocket endpoints.
package runtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kandev/agentnet/internal/a2a"
	"github.com/kandev/agentnet/internal/common/apierrors"
	"github.com/kandev/agentnet/internal/common/config"
	"github.com/kandev/agentnet/internal/common/logger"
	"github.com/kandev/agentnet/internal/filestore"
	"github.com/kandev/agentnet/internal/mcptools"
	"github.com/kandev/agentnet/internal/model"
	"github.com/kandev/agentnet/internal/registryclient"
	"github.com/kandev/agentnet/internal/tools"
)

// Personality is the data-driven description of one worker: name, category,
// system prompt, and any auxiliary MCP tool endpoints, all read from config
// rather than expressed as a Go subtype (spec.md §9 design note).
type Personality struct {
	Name                string
	Category            string
	URL                 string
	Expose              bool
	VisibleTo           []string
	SystemPrompt        string
	SupportedMediaTypes []string
	ExtraToolEndpoints  []string // URLs of auxiliary mcp.<port> services
}

// trackedTask pairs a task with its per-task transcript and a lock
// serializing concurrent calls against the same TaskId (spec.md §5).
type trackedTask struct {
	mu         sync.Mutex
	task       *a2a.Task
	transcript []model.ChatMessage
}

// Runtime is a single GenericAgentRuntime instance.
type Runtime struct {
	personality Personality
	registry    *registryclient.Client
	files       *filestore.Store
	gateway     *model.Gateway
	logger      *logger.Logger

	agentID string

	mu    sync.RWMutex
	tasks map[string]*trackedTask

	// sem bounds how many HandleMessage calls run concurrently, mirroring
	// the teacher's executor.CanExecute/maxConcurrent guard against
	// unbounded fan-out onto a single worker.
	sem chan struct{}

	keepAliveInterval time.Duration
	stopCh            chan struct{}
	wg                sync.WaitGroup
}

// New builds a Runtime from config and the personality it hosts.
func New(cfg *config.Config, personality Personality, gateway *model.Gateway, files *filestore.Store, log *logger.Logger) *Runtime {
	if log == nil {
		log = logger.Default()
	}
	maxConcurrent := cfg.System.MaxConcurrentTasks
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &Runtime{
		personality:       personality,
		registry:          registryclient.New(cfg.System.RegistryURL, log),
		files:             files,
		gateway:           gateway,
		logger:            log.WithFields(zap.String("component", "agent-runtime"), zap.String("agent_name", personality.Name)),
		tasks:             make(map[string]*trackedTask),
		sem:               make(chan struct{}, maxConcurrent),
		keepAliveInterval: cfg.System.KeepAliveIntervalDuration(),
		stopCh:            make(chan struct{}),
	}
}

// Start registers the runtime with C4 and spawns its keep-alive loop.
func (r *Runtime) Start(ctx context.Context) error {
	agentID, err := r.registry.Register(ctx, r.personality.Name, r.personality.URL, r.personality.Category, r.personality.Expose, r.personality.VisibleTo)
	if err != nil {
		return apierrors.Wrap(err, "registering agent runtime")
	}
	r.agentID = agentID
	r.logger.Info("registered with registry", zap.String("agent_id", agentID))

	r.wg.Add(1)
	go r.keepAliveLoop(ctx)
	return nil
}

// Stop halts the keep-alive loop and best-effort unregisters the agent.
func (r *Runtime) Stop(ctx context.Context) {
	close(r.stopCh)
	r.wg.Wait()
	if r.agentID == "" {
		return
	}
	if err := r.registry.Unregister(ctx, r.agentID); err != nil {
		r.logger.WithError(err).Warn("best-effort unregister failed")
	}
}

// keepAliveLoop mirrors the teacher's lifecycle.Manager background-loop
// shape (ticker + stopCh + WaitGroup), POSTing keepalive every
// keep_alive_interval. A run of failures is logged and not retried
// out-of-band: the registry will simply evict this agent. The runtime does
// not re-register after an eviction; later keepalives keep failing and are
// logged.
func (r *Runtime) keepAliveLoop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			if err := r.registry.Keepalive(ctx, r.agentID); err != nil {
				r.logger.WithError(err).Warn("keepalive failed, registry will evict on threshold")
			}
		}
	}
}

// AgentID returns the AgentId this runtime registered with (empty until
// Start has succeeded).
func (r *Runtime) AgentID() string {
	return r.agentID
}

// Card builds this worker's agent card for the well-known endpoint.
func (r *Runtime) Card() a2a.AgentCard {
	return a2a.AgentCard{
		Name:        r.personality.Name,
		Description: "Generic worker agent for category " + r.personality.Category,
		URL:         r.personality.URL,
		Version:     "1.0.0",
		Capabilities: a2a.Capabilities{
			Streaming: true,
		},
		Skills: []a2a.Skill{
			{ID: r.personality.Category, Name: r.personality.Name, Description: r.personality.SystemPrompt},
		},
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
	}
}

// newToolTransport equips one model gateway call with this identity's
// peer-invocation tools plus any configured auxiliary mcp.<port> services,
// exactly as chat.go does for the registry's /user/chat entry point.
func (r *Runtime) newToolTransport(ctx context.Context) (model.Transport, func(), error) {
	toolset := tools.New(tools.Identity{SelfID: r.agentID, Role: "agent"}, r.registry, r.files, r.logger)
	mcpServer := mcptools.NewServer(r.personality.Name+"-runtime", "1.0.0", toolset.Specs())

	self, err := mcptools.NewInProcessTransport(ctx, mcpServer, r.personality.Name+"-client", "1.0.0")
	if err != nil {
		return nil, func() {}, apierrors.ToolError("opening self tool transport", err)
	}

	closers := []func(){func() { _ = self.Close() }}
	members := []model.Transport{self}

	for _, url := range r.personality.ExtraToolEndpoints {
		aux, err := mcptools.NewHTTPTransport(ctx, url, r.personality.Name+"-client", "1.0.0")
		if err != nil {
			r.logger.WithError(err).Warn("could not connect auxiliary mcp endpoint " + url)
			continue
		}
		closers = append(closers, func() { _ = aux.Close() })
		members = append(members, aux)
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(members) == 1 {
		return self, closeAll, nil
	}
	return mcptools.NewCompositeTransport(r.logger, members...), closeAll, nil
}
