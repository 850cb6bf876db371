package repository

import (
	"context"
	"time"

	"github.com/pesio-ai/be-hr-recruitment/internal/platform/errors"
	"github.com/pesio-ai/be-hr-recruitment/internal/workflow"
)

// ErrVersionConflict is returned when an update was based on a stale read.
var ErrVersionConflict = errors.New(errors.ErrCodeVersionConflict, "entity was modified by another action")

// EntityFilter narrows List results. Zero values match everything.
type EntityFilter struct {
	Kind        workflow.Kind
	Status      workflow.Status
	PendingRole string
	Limit       int
	Offset      int
}

// EntityStore owns the recruitment entity collections.
type EntityStore interface {
	// Create assigns an ID when empty, sets Version to 1 and stamps timestamps.
	Create(ctx context.Context, e *workflow.Entity) error
	GetByID(ctx context.Context, id string) (*workflow.Entity, error)
	// Update persists e only if the stored version equals expectedVersion,
	// then bumps e.Version.
	Update(ctx context.Context, e *workflow.Entity, expectedVersion int64) error
	List(ctx context.Context, filter EntityFilter) ([]*workflow.Entity, int64, error)
}

// AuditEntry is one immutable record of a workflow action.
type AuditEntry struct {
	ID           string                 `json:"id"`
	EntityID     string                 `json:"entity_id"`
	EntityKind   workflow.Kind          `json:"entity_kind"`
	Action       string                 `json:"action"` // submitted | approve | reject | return | resubmitted
	Role         string                 `json:"role,omitempty"`
	PerformedBy  string                 `json:"performed_by"`
	PerformedAt  time.Time              `json:"performed_at"`
	StatusBefore workflow.Status        `json:"status_before,omitempty"`
	StatusAfter  workflow.Status        `json:"status_after"`
	Remarks      string                 `json:"remarks,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// AuditRepository is append-only.
type AuditRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
	GetByEntityID(ctx context.Context, entityID string) ([]*AuditEntry, error)
}

func matches(e *workflow.Entity, f EntityFilter) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.PendingRole != "" {
		role, ok := workflow.CurrentPendingRole(*e)
		if !ok || role != f.PendingRole {
			return false
		}
	}
	return true
}
