package registry

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/kandev/agentnet/internal/common/config"
	"github.com/kandev/agentnet/internal/common/logger"
)

// EventBus is C4's best-effort observational publisher: agent
// registration, unregistration and eviction, and task forwarding and
// terminal task status fire a notification here, fire-and-forget, so an external
// dashboard can tail the network without being in the request path. A
// nil *EventBus is valid and simply drops every publish. Grounded on the
// teacher's internal/events/bus NATSEventBus, narrowed to publish-only
// since nothing in this network subscribes back into the registry.
type EventBus struct {
	conn   *nats.Conn
	logger *logger.Logger
}

// Publisher is the narrow seam Evictor and Service depend on instead of
// the concrete *EventBus, so tests can substitute a fake recorder without
// a live NATS connection. *EventBus satisfies it, including the nil case
// (every method is nil-receiver safe).
type Publisher interface {
	Publish(subject string, data map[string]any)
	Close()
}

// NewEventBus connects to cfg.URL. An empty URL disables the bus
// entirely: NewEventBus returns (nil, nil).
func NewEventBus(cfg config.NATSConfig, log *logger.Logger) (*EventBus, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	if log == nil {
		log = logger.Default()
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.ClientID),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}
	return &EventBus{conn: conn, logger: log}, nil
}

// Publish sends a best-effort notification on subject. Failures are
// logged, never returned: the event store above is authoritative, this
// bus is purely observational.
func (b *EventBus) Publish(subject string, data map[string]any) {
	if b == nil || b.conn == nil {
		return
	}
	payload := map[string]any{
		"id":        uuid.New().String(),
		"type":      subject,
		"timestamp": time.Now().UTC(),
		"data":      data,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		b.logger.Warn("failed to encode event", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := b.conn.Publish(subject, encoded); err != nil {
		b.logger.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

// Close drains and closes the underlying connection.
func (b *EventBus) Close() {
	if b == nil || b.conn == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}
