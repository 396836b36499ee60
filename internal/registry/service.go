package registry

import (
	"context"

	"github.com/kandev/agentnet/internal/common/config"
	"github.com/kandev/agentnet/internal/common/logger"
	"github.com/kandev/agentnet/internal/filestore"
	"github.com/kandev/agentnet/internal/model"
)

// Service bundles C4's graph with the dependencies its handlers need:
// the file store (for /user/chat's inline-FilePart registration), the
// model gateway (for the planner), and the best-effort event bus.
type Service struct {
	Graph    *Graph
	Evictor  *Evictor
	Bus      Publisher
	Files    *filestore.Store
	Gateway  *model.Gateway
	Config   *config.Config
	SelfURL  string
	logger   *logger.Logger
}

// NewService wires a Service from its dependencies and starts the
// background eviction loop. bus may be nil (as an untyped nil or a nil
// *EventBus); both disable publishing.
func NewService(ctx context.Context, cfg *config.Config, files *filestore.Store, gateway *model.Gateway, bus Publisher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	graph := NewGraph()
	evictor := NewEvictor(graph, bus, cfg.System.KeepAliveIntervalDuration(), cfg.System.KeepAliveThresholdDuration(), log)
	evictor.Start(ctx)

	selfURL := cfg.System.URL
	if selfURL == "" {
		selfURL = "http://localhost"
	}

	return &Service{
		Graph:   graph,
		Evictor: evictor,
		Bus:     bus,
		Files:   files,
		Gateway: gateway,
		Config:  cfg,
		SelfURL: selfURL,
		logger:  log,
	}
}

// Close stops the background eviction loop and the event bus.
func (s *Service) Close() {
	s.Evictor.Stop()
	if s.Bus != nil {
		s.Bus.Close()
	}
}
