package service

import (
	"context"
	"strings"
	"time"

	"github.com/pesio-ai/be-hr-recruitment/internal/client"
	"github.com/pesio-ai/be-hr-recruitment/internal/platform/errors"
	"github.com/pesio-ai/be-hr-recruitment/internal/platform/logger"
	"github.com/pesio-ai/be-hr-recruitment/internal/repository"
	"github.com/pesio-ai/be-hr-recruitment/internal/workflow"
)

// Clock supplies the current time.
type Clock func() time.Time

// Config carries the external seams of the service.
type Config struct {
	Clock Clock
	// DefaultActor is used when a request carries no actor identity.
	DefaultActor string
}

// WorkflowService loads entities, applies workflow transitions through the
// owning policy and persists the result.
type WorkflowService struct {
	store        repository.EntityStore
	audit        repository.AuditRepository
	policies     workflow.Policies
	events       *client.EventPublisher
	now          Clock
	defaultActor string
	locks        *entityLocks
	log          *logger.Logger
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(
	store repository.EntityStore,
	audit repository.AuditRepository,
	policies workflow.Policies,
	events *client.EventPublisher,
	cfg Config,
	log *logger.Logger,
) *WorkflowService {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.DefaultActor == "" {
		cfg.DefaultActor = "Current User"
	}
	return &WorkflowService{
		store:        store,
		audit:        audit,
		policies:     policies,
		events:       events,
		now:          cfg.Clock,
		defaultActor: cfg.DefaultActor,
		locks:        newEntityLocks(),
		log:          log,
	}
}

// CreateRequest represents a new job description, requisition or hiring
// approval.
type CreateRequest struct {
	ID            string `json:"id,omitempty"`
	Subject       string `json:"subject"`
	RequestedBy   string `json:"requested_by,omitempty"`
	Justification string `json:"justification,omitempty"`
	Department    string `json:"department,omitempty"`
	Section       string `json:"section,omitempty"`
}

// ActionRequest represents an approve / reject / return request.
type ActionRequest struct {
	ID      string `json:"id"`
	Action  string `json:"action"`
	Actor   string `json:"actor,omitempty"`
	Remarks string `json:"remarks,omitempty"`
	// ExpectedVersion, when non-zero, must match the stored version.
	ExpectedVersion int64 `json:"expected_version,omitempty"`
}

// ResubmitRequest re-enters an entity that was returned for revision.
type ResubmitRequest struct {
	ID              string `json:"id"`
	Actor           string `json:"actor,omitempty"`
	Remarks         string `json:"remarks,omitempty"`
	ExpectedVersion int64  `json:"expected_version,omitempty"`
}

// EntityView is everything a caller needs to render one entity.
type EntityView struct {
	Entity      *workflow.Entity         `json:"entity"`
	CurrentRole string                   `json:"current_role,omitempty"`
	Actions     []workflow.Action        `json:"actions,omitempty"`
	Timeline    []workflow.TimelineEntry `json:"timeline"`
	History     []workflow.HistoryEvent  `json:"history"`
}

// ── Creation ──────────────────────────────────────────────────────────────────

// CreateJobDescription creates and submits a job description.
func (s *WorkflowService) CreateJobDescription(ctx context.Context, req *CreateRequest) (*workflow.Entity, error) {
	return s.create(ctx, workflow.KindJobDescription, req)
}

// CreateRequisition creates and submits a requisition.
func (s *WorkflowService) CreateRequisition(ctx context.Context, req *CreateRequest) (*workflow.Entity, error) {
	return s.create(ctx, workflow.KindRequisition, req)
}

// CreateHiringApproval creates and submits a hiring approval. The approver
// roles are resolved from department and section here, once.
func (s *WorkflowService) CreateHiringApproval(ctx context.Context, req *CreateRequest) (*workflow.Entity, error) {
	if strings.TrimSpace(req.Department) == "" {
		return nil, errors.InvalidInput("department", "department is required for hiring approvals")
	}
	return s.create(ctx, workflow.KindHiringApproval, req)
}

// Create dispatches on kind.
func (s *WorkflowService) Create(ctx context.Context, kind workflow.Kind, req *CreateRequest) (*workflow.Entity, error) {
	switch kind {
	case workflow.KindJobDescription:
		return s.CreateJobDescription(ctx, req)
	case workflow.KindRequisition:
		return s.CreateRequisition(ctx, req)
	case workflow.KindHiringApproval:
		return s.CreateHiringApproval(ctx, req)
	}
	return nil, errors.InvalidInput("kind", "unknown entity kind")
}

func (s *WorkflowService) create(ctx context.Context, kind workflow.Kind, req *CreateRequest) (*workflow.Entity, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return nil, errors.InvalidInput("subject", "subject is required")
	}

	policy, err := s.policies.For(kind)
	if err != nil {
		return nil, err
	}

	entity, err := policy.Submit(workflow.Entity{
		ID:            req.ID,
		Kind:          kind,
		Subject:       strings.TrimSpace(req.Subject),
		RequestedBy:   s.actor(req.RequestedBy),
		Justification: req.Justification,
		Department:    strings.TrimSpace(req.Department),
		Section:       strings.TrimSpace(req.Section),
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, &entity); err != nil {
		return nil, err
	}

	role, _ := workflow.CurrentPendingRole(entity)
	s.appendAudit(ctx, &repository.AuditEntry{
		EntityID:    entity.ID,
		EntityKind:  kind,
		Action:      "submitted",
		PerformedBy: entity.RequestedBy,
		PerformedAt: entity.SubmittedAt,
		StatusAfter: entity.Status,
		Remarks:     entity.Justification,
		Metadata:    map[string]interface{}{"roles": entity.Roles},
	})
	s.events.Publish(ctx, &client.WorkflowEvent{
		EventType:  client.EventSubmitted,
		EntityID:   entity.ID,
		EntityKind: string(kind),
		ActorID:    entity.RequestedBy,
		Status:     string(entity.Status),
		NextRole:   role,
		OccurredAt: entity.SubmittedAt,
	})

	s.log.Info().
		Str("entity_id", entity.ID).
		Str("kind", string(kind)).
		Strs("roles", entity.Roles).
		Str("requested_by", entity.RequestedBy).
		Msg("Entity submitted for approval")

	return &entity, nil
}

// ── Transitions ───────────────────────────────────────────────────────────────

// Act applies an approve / reject / return action to the entity's pending
// step. On any error the stored entity is left untouched.
func (s *WorkflowService) Act(ctx context.Context, req *ActionRequest) (*workflow.Entity, error) {
	action, err := workflow.ParseAction(req.Action)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnsupportedAction, "unsupported action")
	}
	actor := s.actor(req.Actor)

	unlock := s.locks.Lock(req.ID)
	defer unlock()

	current, policy, err := s.load(ctx, req.ID, req.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	role, _ := workflow.CurrentPendingRole(*current)

	next, err := policy.Transition(*current, action, actor, strings.TrimSpace(req.Remarks), s.now())
	if err != nil {
		s.log.Warn().Err(err).
			Str("entity_id", req.ID).
			Str("action", string(action)).
			Str("status", string(current.Status)).
			Msg("Workflow transition refused")
		return nil, err
	}

	if err := s.store.Update(ctx, &next, current.Version); err != nil {
		return nil, err
	}

	nextRole, _ := workflow.CurrentPendingRole(next)
	s.appendAudit(ctx, &repository.AuditEntry{
		EntityID:     next.ID,
		EntityKind:   next.Kind,
		Action:       string(action),
		Role:         role,
		PerformedBy:  actor,
		PerformedAt:  s.now(),
		StatusBefore: current.Status,
		StatusAfter:  next.Status,
		Remarks:      req.Remarks,
	})
	s.events.Publish(ctx, &client.WorkflowEvent{
		EventType:  eventType(action, next.Status),
		EntityID:   next.ID,
		EntityKind: string(next.Kind),
		ActorID:    actor,
		Role:       role,
		Status:     string(next.Status),
		NextRole:   nextRole,
		OccurredAt: s.now(),
	})

	s.log.Info().
		Str("entity_id", next.ID).
		Str("kind", string(next.Kind)).
		Str("action", string(action)).
		Str("role", role).
		Str("actor", actor).
		Str("status_before", string(current.Status)).
		Str("status_after", string(next.Status)).
		Msg("Workflow transition applied")

	return &next, nil
}

// Resubmit restarts an entity in Needs Revision at its first role.
func (s *WorkflowService) Resubmit(ctx context.Context, req *ResubmitRequest) (*workflow.Entity, error) {
	actor := s.actor(req.Actor)

	unlock := s.locks.Lock(req.ID)
	defer unlock()

	current, policy, err := s.load(ctx, req.ID, req.ExpectedVersion)
	if err != nil {
		return nil, err
	}

	next, err := policy.Resubmit(*current, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, &next, current.Version); err != nil {
		return nil, err
	}

	role, _ := workflow.CurrentPendingRole(next)
	s.appendAudit(ctx, &repository.AuditEntry{
		EntityID:     next.ID,
		EntityKind:   next.Kind,
		Action:       "resubmitted",
		PerformedBy:  actor,
		PerformedAt:  s.now(),
		StatusBefore: current.Status,
		StatusAfter:  next.Status,
		Remarks:      req.Remarks,
	})
	s.events.Publish(ctx, &client.WorkflowEvent{
		EventType:  client.EventResubmitted,
		EntityID:   next.ID,
		EntityKind: string(next.Kind),
		ActorID:    actor,
		Status:     string(next.Status),
		NextRole:   role,
		OccurredAt: s.now(),
	})

	s.log.Info().
		Str("entity_id", next.ID).
		Str("actor", actor).
		Msg("Entity resubmitted after revision")

	return &next, nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

// Get returns an entity by id.
func (s *WorkflowService) Get(ctx context.Context, id string) (*workflow.Entity, error) {
	return s.store.GetByID(ctx, id)
}

// View returns the entity together with its timeline and history.
func (s *WorkflowService) View(ctx context.Context, id string) (*EntityView, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	policy, err := s.policies.For(e.Kind)
	if err != nil {
		return nil, err
	}

	view := &EntityView{
		Entity:   e,
		Timeline: workflow.Timeline(*e),
		History:  workflow.BuildHistory(*e, s.now()),
	}
	if role, ok := workflow.CurrentPendingRole(*e); ok {
		view.CurrentRole = role
		view.Actions = policy.Actions()
	}
	return view, nil
}

// List returns entities matching filter and the total match count.
func (s *WorkflowService) List(ctx context.Context, filter repository.EntityFilter) ([]*workflow.Entity, int64, error) {
	return s.store.List(ctx, filter)
}

// PendingFor returns the entities waiting on role.
func (s *WorkflowService) PendingFor(ctx context.Context, role string) ([]*workflow.Entity, error) {
	if strings.TrimSpace(role) == "" {
		return nil, errors.InvalidInput("role", "role is required")
	}
	entities, _, err := s.store.List(ctx, repository.EntityFilter{PendingRole: role})
	return entities, err
}

// AuditTrail returns the stored audit entries for an entity.
func (s *WorkflowService) AuditTrail(ctx context.Context, id string) ([]*repository.AuditEntry, error) {
	return s.audit.GetByEntityID(ctx, id)
}

// ── Internal helpers ──────────────────────────────────────────────────────────

// load fetches an entity and its policy and refreshes the cached status.
func (s *WorkflowService) load(ctx context.Context, id string, expectedVersion int64) (*workflow.Entity, *workflow.Policy, error) {
	if id == "" {
		return nil, nil, errors.InvalidInput("id", "entity id is required")
	}
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if expectedVersion != 0 && expectedVersion != e.Version {
		return nil, nil, repository.ErrVersionConflict
	}
	policy, err := s.policies.For(e.Kind)
	if err != nil {
		return nil, nil, err
	}
	refreshed := policy.Refresh(*e)
	return &refreshed, policy, nil
}

func (s *WorkflowService) actor(a string) string {
	if a = strings.TrimSpace(a); a != "" {
		return a
	}
	return s.defaultActor
}

// appendAudit writes an audit entry and logs a warning on failure (never returns error).
func (s *WorkflowService) appendAudit(ctx context.Context, entry *repository.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).
			Str("entity_id", entry.EntityID).
			Str("action", entry.Action).
			Msg("Failed to write audit log entry")
	}
}

func eventType(action workflow.Action, status workflow.Status) string {
	switch action {
	case workflow.ActionReject:
		return client.EventRejected
	case workflow.ActionReturn:
		return client.EventReturned
	}
	if status == workflow.StatusApproved {
		return client.EventCompleted
	}
	return client.EventApproved
}
