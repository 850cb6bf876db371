package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event types published on workflow transitions.
const (
	EventSubmitted   = "submitted"
	EventApproved    = "approved"
	EventRejected    = "rejected"
	EventReturned    = "returned"
	EventCompleted   = "completed"
	EventResubmitted = "resubmitted"
)

// Publisher is the subset of *nats.Conn used here.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// EventPublisher publishes workflow transition events to NATS for downstream
// consumers.
//
// Subject convention: <prefix>.<entity_kind>.<event_type>
//
// All publish operations are non-fatal: errors are logged but never propagated
// to the caller, so a broker outage never blocks an approval.
type EventPublisher struct {
	conn   Publisher
	prefix string
	log    zerolog.Logger
}

// WorkflowEvent is the JSON schema published to NATS.
type WorkflowEvent struct {
	EventType  string                 `json:"event_type"`
	EntityID   string                 `json:"entity_id"`
	EntityKind string                 `json:"entity_kind"`
	ActorID    string                 `json:"actor_id"`
	Role       string                 `json:"role,omitempty"`
	Status     string                 `json:"status"`
	NextRole   string                 `json:"next_role,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// NewEventPublisher creates a publisher. A nil conn disables publishing.
func NewEventPublisher(conn Publisher, prefix string, log zerolog.Logger) *EventPublisher {
	if prefix == "" {
		prefix = "workflow"
	}
	return &EventPublisher{conn: conn, prefix: prefix, log: log}
}

// Connect dials NATS and returns the connection.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return conn, nil
}

// Subject returns the subject an event is published on.
func (p *EventPublisher) Subject(kind, eventType string) string {
	return fmt.Sprintf("%s.%s.%s", p.prefix, kind, eventType)
}

// Publish sends event. It is a no-op when publishing is disabled.
func (p *EventPublisher) Publish(ctx context.Context, event *WorkflowEvent) {
	if p == nil || p.conn == nil {
		return
	}
	if err := ctx.Err(); err != nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", event.EventType).Msg("event: failed to marshal")
		return
	}

	subject := p.Subject(event.EntityKind, event.EventType)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("entity_id", event.EntityID).
			Msg("event: failed to publish NATS event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("entity_id", event.EntityID).
		Msg("event: published")
}
