package registry

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kandev/agentnet/internal/common/logger"
)

// Evictor runs the background keep-alive eviction loop of spec.md §4.4:
// every tick, it removes public agents whose last_seen is older than
// threshold. Grounded on the teacher's lifecycle.Manager cleanupLoop
// (ticker + stopCh + WaitGroup shape).
type Evictor struct {
	graph     *Graph
	bus       Publisher
	interval  time.Duration
	threshold time.Duration
	logger    *logger.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewEvictor builds an Evictor over graph, ticking every interval and
// evicting agents whose last_seen exceeds threshold. bus may be nil.
func NewEvictor(graph *Graph, bus Publisher, interval, threshold time.Duration, log *logger.Logger) *Evictor {
	if log == nil {
		log = logger.Default()
	}
	return &Evictor{
		graph:     graph,
		bus:       bus,
		interval:  interval,
		threshold: threshold,
		logger:    log.WithFields(zap.String("component", "registry-evictor")),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the background loop.
func (e *Evictor) Start(ctx context.Context) {
	e.wg.Add(1)
	go e.loop(ctx)
}

// Stop halts the background loop and waits for it to exit.
func (e *Evictor) Stop() {
	close(e.stopCh)
	e.wg.Wait()
}

func (e *Evictor) loop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.evictExpired()
		}
	}
}

// evictExpired removes every public agent whose last_seen is older than
// threshold, atomically with respect to concurrent registry calls.
func (e *Evictor) evictExpired() {
	e.graph.mu.Lock()
	now := time.Now().UTC()
	var evicted []string
	for id, n := range e.graph.nodes {
		if n.Kind == NodePublic && now.Sub(n.LastSeen) > e.threshold {
			delete(e.graph.nodes, id)
			evicted = append(evicted, id)
		}
	}
	e.graph.mu.Unlock()

	for _, id := range evicted {
		e.logger.Info("evicted stale agent", zap.String("agent_id", id))
		if e.bus != nil {
			e.bus.Publish("agent.evicted", map[string]any{"agent_id": id})
		}
	}
}
