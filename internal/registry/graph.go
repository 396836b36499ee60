// Package registry implements the central registry & graph service (C4):
// agent lifecycle, keep-alive eviction, visibility-scoped discovery,
// interaction edges, per-agent task counters, the task/artifact event
// store, user sessions, and the user-facing chat entry point.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/kandev/agentnet/internal/a2a"
	"github.com/kandev/agentnet/internal/common/apierrors"
	"github.com/kandev/agentnet/internal/common/idgen"
)

// NodeKind discriminates the two AgentNode variants (spec.md §3).
type NodeKind string

const (
	NodePublic NodeKind = "public"
	NodeUser   NodeKind = "user"
)

// Interaction is a transient directed edge describing an in-flight call.
type Interaction struct {
	DstID          string `json:"dst_id"`
	MessageExcerpt string `json:"message_excerpt"`
}

// excerptLimit bounds how much of a message is retained on an edge.
const excerptLimit = 200

func excerpt(message string) string {
	r := []rune(message)
	if len(r) <= excerptLimit {
		return message
	}
	return string(r[:excerptLimit])
}

// Node is the polymorphic AgentNode of spec.md §3: common fields always
// populated, public-only and user-only fields populated per Kind.
type Node struct {
	Kind         NodeKind
	ID           string
	Name         string
	Category     string
	Interactions []Interaction
	Tasks        map[string]*a2a.Task

	// public-only
	URL       string
	LastSeen  time.Time
	TaskCount int
	Expose    bool
	VisibleTo []string // nil = visible to all categories

	// user-only
	Conversations map[string][]a2a.Message
}

func newPublicNode(id, name, url, category string, expose bool, visibleTo []string) *Node {
	return &Node{
		Kind:      NodePublic,
		ID:        id,
		Name:      name,
		Category:  category,
		Tasks:     make(map[string]*a2a.Task),
		URL:       url,
		LastSeen:  time.Now().UTC(),
		Expose:    expose,
		VisibleTo: visibleTo,
	}
}

func newUserNode(id, name string) *Node {
	return &Node{
		Kind:          NodeUser,
		ID:            id,
		Name:          name,
		Tasks:         make(map[string]*a2a.Task),
		Conversations: make(map[string][]a2a.Message),
	}
}

// Graph is C4's shared state: map<AgentId, AgentNode>, guarded by a
// reader/writer lock that every handler releases across outbound network
// awaits (spec.md §5) — in this implementation that means no handler
// holds mu while making an HTTP or provider call.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
}

// NewGraph builds an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// DiscoveredAgent is one entry of a discover()/get_all() response.
type DiscoveredAgent struct {
	AgentID string `json:"agent_id"`
	Name    string `json:"name"`
	URL     string `json:"url"`
}

// Register inserts a fresh public node, rejecting a duplicate URL among
// existing public agents.
func (g *Graph) Register(name, url, category string, expose bool, visibleTo []string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, n := range g.nodes {
		if n.Kind == NodePublic && n.URL == url {
			return "", apierrors.AlreadyExists("agent url", url)
		}
	}

	id := idgen.New()
	g.nodes[id] = newPublicNode(id, name, url, category, expose, visibleTo)
	return id, nil
}

// Keepalive refreshes last_seen for a public agent.
func (g *Graph) Keepalive(agentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[agentID]
	if !ok {
		return apierrors.NotFound("agent", agentID)
	}
	if n.Kind != NodePublic {
		return apierrors.InvalidRole("keepalive: " + agentID + " is not a public agent")
	}
	n.LastSeen = time.Now().UTC()
	return nil
}

// Unregister removes a public agent from the graph.
func (g *Graph) Unregister(agentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[agentID]
	if !ok {
		return apierrors.NotFound("agent", agentID)
	}
	if n.Kind != NodePublic {
		return apierrors.InvalidRole("unregister: " + agentID + " is not a public agent")
	}
	delete(g.nodes, agentID)
	return nil
}

// visible implements the visibility law of spec.md §4.4: a public agent A
// is visible to requester R iff A.category == R.category, OR (A.expose
// AND (A.visible_to is null OR R.category in A.visible_to)).
func visible(a *Node, requesterCategory string) bool {
	if a.Category == requesterCategory {
		return true
	}
	if !a.Expose {
		return false
	}
	if a.VisibleTo == nil {
		return true
	}
	for _, cat := range a.VisibleTo {
		if cat == requesterCategory {
			return true
		}
	}
	return false
}

// Discover returns the public agents visible to requesterID.
func (g *Graph) Discover(requesterID string) ([]DiscoveredAgent, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	requester, ok := g.nodes[requesterID]
	if !ok {
		return nil, apierrors.NotFound("agent", requesterID)
	}

	var out []DiscoveredAgent
	for _, n := range g.nodes {
		if n.Kind != NodePublic {
			continue
		}
		if visible(n, requester.Category) {
			out = append(out, DiscoveredAgent{AgentID: n.ID, Name: n.Name, URL: n.URL})
		}
	}
	sortDiscovered(out)
	return out, nil
}

// GetAll returns every public agent regardless of visibility.
func (g *Graph) GetAll() []DiscoveredAgent {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []DiscoveredAgent
	for _, n := range g.nodes {
		if n.Kind == NodePublic {
			out = append(out, DiscoveredAgent{AgentID: n.ID, Name: n.Name, URL: n.URL})
		}
	}
	sortDiscovered(out)
	return out
}

func sortDiscovered(agents []DiscoveredAgent) {
	sort.Slice(agents, func(i, j int) bool { return agents[i].AgentID < agents[j].AgentID })
}

// AddInteraction records a live call edge from src to dst, keeping only
// the first edge per (src,dst) pair (spec.md §9 open question).
func (g *Graph) AddInteraction(srcID, dstID, message string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	src, ok := g.nodes[srcID]
	if !ok {
		return apierrors.NotFound("agent", srcID)
	}
	if _, ok := g.nodes[dstID]; !ok {
		return apierrors.NotFound("agent", dstID)
	}

	for _, edge := range src.Interactions {
		if edge.DstID == dstID {
			return nil
		}
	}
	src.Interactions = append(src.Interactions, Interaction{DstID: dstID, MessageExcerpt: excerpt(message)})
	return nil
}

// DeleteInteraction removes the first matching edge from src to dst.
func (g *Graph) DeleteInteraction(srcID, dstID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	src, ok := g.nodes[srcID]
	if !ok {
		return apierrors.NotFound("agent", srcID)
	}

	for i, edge := range src.Interactions {
		if edge.DstID == dstID {
			src.Interactions = append(src.Interactions[:i], src.Interactions[i+1:]...)
			return nil
		}
	}
	return nil
}

// InteractionEdge is one entry of the flat /interactions listing.
type InteractionEdge struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

// AllInteractions flattens every node's interaction edges.
func (g *Graph) AllInteractions() []InteractionEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []InteractionEdge
	for id, n := range g.nodes {
		for _, edge := range n.Interactions {
			out = append(out, InteractionEdge{Src: id, Dst: edge.DstID})
		}
	}
	return out
}

// UserInteraction is one entry of /interactions/user/{user_id}: the
// destination id paired with its display name.
type UserInteraction struct {
	DstID string `json:"dst_id"`
	Name  string `json:"name"`
}

// InteractionsForUser returns userID's outgoing interaction edges, each
// paired with the destination's current display name.
func (g *Graph) InteractionsForUser(userID string) ([]UserInteraction, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	src, ok := g.nodes[userID]
	if !ok {
		return nil, apierrors.NotFound("agent", userID)
	}

	out := make([]UserInteraction, 0, len(src.Interactions))
	for _, edge := range src.Interactions {
		name := edge.DstID
		if dst, ok := g.nodes[edge.DstID]; ok {
			name = dst.Name
		}
		out = append(out, UserInteraction{DstID: edge.DstID, Name: name})
	}
	return out, nil
}

// TaskCountAdd increments a public agent's in-flight task counter.
func (g *Graph) TaskCountAdd(agentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[agentID]
	if !ok {
		return apierrors.NotFound("agent", agentID)
	}
	if n.Kind != NodePublic {
		return apierrors.InvalidRole("task_count/add: " + agentID + " is not a public agent")
	}
	n.TaskCount++
	return nil
}

// TaskCountDelete decrements a public agent's in-flight task counter,
// clamped at zero (spec.md §9 open question: clamping, not an error).
func (g *Graph) TaskCountDelete(agentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[agentID]
	if !ok {
		return apierrors.NotFound("agent", agentID)
	}
	if n.Kind != NodePublic {
		return apierrors.InvalidRole("task_count/delete: " + agentID + " is not a public agent")
	}
	if n.TaskCount > 0 {
		n.TaskCount--
	}
	return nil
}

// TaskCount returns a single agent's in-flight task counter.
func (g *Graph) TaskCount(agentID string) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[agentID]
	if !ok {
		return 0, apierrors.NotFound("agent", agentID)
	}
	return n.TaskCount, nil
}

// TaskCountAll returns every public agent's in-flight task counter.
func (g *Graph) TaskCountAll() map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]int)
	for id, n := range g.nodes {
		if n.Kind == NodePublic {
			out[id] = n.TaskCount
		}
	}
	return out
}

// Snapshot returns a shallow, read-only copy of the graph for /graph.
func (g *Graph) Snapshot() map[string]*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]*Node, len(g.nodes))
	for id, n := range g.nodes {
		copied := *n
		out[id] = &copied
	}
	return out
}
