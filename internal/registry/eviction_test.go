package registry

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakePublisher records every Publish call made against it, so tests can
// assert the best-effort NATS-publish wiring without a live nats.Conn.
type fakePublisher struct {
	mu    sync.Mutex
	calls []fakePublishCall
}

type fakePublishCall struct {
	subject string
	data    map[string]any
}

func (f *fakePublisher) Publish(subject string, data map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakePublishCall{subject: subject, data: data})
}

func (f *fakePublisher) Close() {}

func (f *fakePublisher) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.subject
	}
	return out
}

func (f *fakePublisher) snapshot() []fakePublishCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakePublishCall{}, f.calls...)
}

// TestEvictorPublishesOnEviction covers the best-effort NATS notification
// invariant of spec.md §4/§6.4: every eviction fires an "agent.evicted"
// publish carrying the evicted agent's id.
func TestEvictorPublishesOnEviction(t *testing.T) {
	g := NewGraph()
	bID, _ := g.Register("B", "http://b:1", "X", true, []string{"X"})

	bus := &fakePublisher{}
	ev := NewEvictor(g, bus, 10*time.Millisecond, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ev.Start(ctx)
	defer ev.Stop()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if len(bus.subjects()) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	calls := bus.snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected exactly 1 publish, got %d (%+v)", len(calls), calls)
	}
	if calls[0].subject != "agent.evicted" {
		t.Errorf("expected subject agent.evicted, got %q", calls[0].subject)
	}
	if calls[0].data["agent_id"] != bID {
		t.Errorf("expected agent_id %q in publish data, got %+v", bID, calls[0].data)
	}
}

func TestEvictorRemovesStaleAgent(t *testing.T) {
	g := NewGraph()
	aID, _ := g.Register("A", "http://a:1", "X", false, nil)
	_, _ = g.Register("B", "http://b:1", "X", true, []string{"X"})

	ev := NewEvictor(g, nil, 10*time.Millisecond, 20*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ev.Start(ctx)
	defer ev.Stop()

	// Keep A's keep-alive current (simulating a live agent) while B's
	// keep-alive has "stopped" (simulating spec.md §8 scenario 1).
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		_ = g.Keepalive(aID)
		time.Sleep(5 * time.Millisecond)
	}

	agents, err := g.Discover(aID)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(agents) != 1 || agents[0].AgentID != aID {
		t.Fatalf("expected B evicted and only A remaining, got %+v", agents)
	}
}

func TestEvictorKeepsFreshAgent(t *testing.T) {
	g := NewGraph()
	_, _ = g.Register("A", "http://a:1", "X", false, nil)

	ev := NewEvictor(g, nil, 10*time.Millisecond, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ev.Start(ctx)
	defer ev.Stop()

	time.Sleep(50 * time.Millisecond)

	if len(g.GetAll()) != 1 {
		t.Error("expected fresh agent to survive eviction sweep")
	}
}
