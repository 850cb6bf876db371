package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/pesio-ai/be-hr-recruitment/internal/platform/errors"
)

// Policy governs one entity kind: its role sequence, the transition function
// and status derivation. Policies are immutable and safe to share.
type Policy struct {
	kind          Kind
	sequence      []string
	resolver      RoleResolver
	reviewRoles   map[string]bool
	pendingLabels map[string]Status
	allowReturn   bool
}

// NewJobDescriptionPolicy governs Supervisor → HOD → HR.
func NewJobDescriptionPolicy() *Policy {
	return &Policy{
		kind:          KindJobDescription,
		sequence:      JobDescriptionRoles,
		reviewRoles:   map[string]bool{"HR": true},
		pendingLabels: map[string]Status{"HR": "Pending HR Review"},
		allowReturn:   true,
	}
}

// NewRequisitionPolicy governs HOD → Director/Dean → HR Review.
func NewRequisitionPolicy() *Policy {
	return &Policy{
		kind:          KindRequisition,
		sequence:      RequisitionRoles,
		reviewRoles:   map[string]bool{"HR Review": true},
		pendingLabels: map[string]Status{"HR Review": "Pending HR Review"},
		allowReturn:   true,
	}
}

// NewHiringApprovalPolicy governs hiring approvals. Roles come from resolver
// once, at submission, and are stored on the entity.
func NewHiringApprovalPolicy(resolver RoleResolver) *Policy {
	if resolver == nil {
		resolver = DefaultRoleTable()
	}
	return &Policy{
		kind:     KindHiringApproval,
		resolver: resolver,
	}
}

// Kind returns the entity kind this policy governs.
func (p *Policy) Kind() Kind { return p.kind }

// SupportsReturn reports whether the return action is offered.
func (p *Policy) SupportsReturn() bool { return p.allowReturn }

// Actions lists the actions a caller may offer for a pending entity.
func (p *Policy) Actions() []Action {
	if p.allowReturn {
		return []Action{ActionApprove, ActionReject, ActionReturn}
	}
	return []Action{ActionApprove, ActionReject}
}

// Roles returns the role sequence that applies to e.
func (p *Policy) Roles(e Entity) []string {
	if len(e.Roles) > 0 {
		return e.Roles
	}
	if p.resolver != nil {
		return p.resolver.Resolve(p.kind, e.Department, e.Section)
	}
	return p.sequence
}

// PendingStatus is the overall status shown while role is pending.
func (p *Policy) PendingStatus(role string) Status {
	if s, ok := p.pendingLabels[role]; ok {
		return s
	}
	return Status(fmt.Sprintf("Pending %s Approval", role))
}

// Submit starts the workflow: it fixes the role sequence on the entity and
// opens a pending step for the first role.
func (p *Policy) Submit(e Entity, now time.Time) (Entity, error) {
	if e.Kind != p.kind {
		return e, errors.InvalidInput("kind", fmt.Sprintf("policy for %s cannot submit %s", p.kind, e.Kind))
	}
	if len(e.Chain) > 0 {
		return e, ErrAlreadySubmitted
	}

	roles := p.Roles(e)
	if len(roles) == 0 {
		return e, errors.New(errors.ErrCodeInternal, "no approver roles resolved")
	}

	chain, err := AppendPendingStep(nil, roles[0])
	if err != nil {
		return e, err
	}

	next := e.Clone()
	next.Roles = append([]string(nil), roles...)
	next.Chain = chain
	next.SubmittedAt = now
	next.Status = p.DeriveStatus(next.Roles, next.Chain)
	return next, nil
}

// Transition applies action to the pending step. On error e is returned
// unchanged.
func (p *Policy) Transition(e Entity, action Action, actor, remarks string, now time.Time) (Entity, error) {
	switch action {
	case ActionApprove, ActionReject:
	case ActionReturn:
		if !p.allowReturn {
			return e, ErrUnsupportedAction
		}
	default:
		return e, ErrUnsupportedAction
	}
	if action.RequiresRemarks() && strings.TrimSpace(remarks) == "" {
		return e, ErrMissingRemarks
	}

	idx, ok := FindCurrentStepIndex(e.Chain)
	if !ok {
		return e, ErrAlreadyResolved
	}

	roles := p.Roles(e)
	role := e.Chain[idx].Role
	pos := indexOf(roles, role)
	if pos < 0 {
		return e, errors.New(errors.ErrCodeInternal, fmt.Sprintf("pending role %q is not in the role sequence", role))
	}

	var (
		chain Chain
		err   error
	)
	switch action {
	case ActionApprove:
		outcome := StepApproved
		if p.reviewRoles[role] {
			outcome = StepReviewed
		}
		chain, err = ResolveCurrentStep(e.Chain, outcome, action, actor, remarks, now)
		if err == nil && pos < len(roles)-1 {
			chain, err = AppendPendingStep(chain, roles[pos+1])
		}
	case ActionReject:
		chain, err = ResolveCurrentStep(e.Chain, StepRejected, action, actor, remarks, now)
	case ActionReturn:
		chain, err = ResolveCurrentStep(e.Chain, StepRejected, action, actor, remarks, now)
		if err == nil && pos > 0 {
			chain, err = AppendPendingStep(chain, roles[pos-1])
		}
	}
	if err != nil {
		return e, err
	}

	next := e.Clone()
	next.Roles = append([]string(nil), roles...)
	next.Chain = chain
	next.Status = p.DeriveStatus(roles, chain)
	if next.Status == StatusApproved {
		at := now
		next.CompletedAt = &at
	}
	return next, nil
}

// Resubmit re-enters an entity that was returned to its requester. A new
// pending step for the first role is appended; the chain is never truncated.
func (p *Policy) Resubmit(e Entity, now time.Time) (Entity, error) {
	roles := p.Roles(e)
	if p.DeriveStatus(roles, e.Chain) != StatusNeedsRevision {
		return e, ErrNotRevisable
	}

	chain, err := AppendPendingStep(e.Chain, roles[0])
	if err != nil {
		return e, err
	}

	next := e.Clone()
	next.Chain = chain
	next.Status = p.DeriveStatus(roles, chain)
	return next, nil
}

// DeriveStatus computes the overall status from the chain alone.
func (p *Policy) DeriveStatus(roles []string, chain Chain) Status {
	last, ok := chain.Last()
	if !ok {
		return StatusDraft
	}

	switch last.Status {
	case StepPending:
		return p.PendingStatus(last.Role)
	case StepRejected:
		if last.Action == ActionReturn {
			return StatusNeedsRevision
		}
		return StatusRejected
	case StepApproved, StepReviewed:
		if len(roles) > 0 && last.Role == roles[len(roles)-1] {
			return StatusApproved
		}
	}
	return StatusUnknown
}

// Refresh re-derives the cached status of e.
func (p *Policy) Refresh(e Entity) Entity {
	e.Status = p.DeriveStatus(p.Roles(e), e.Chain)
	return e
}

func indexOf(roles []string, role string) int {
	for i, r := range roles {
		if r == role {
			return i
		}
	}
	return -1
}

// Policies maps each kind to its policy.
type Policies map[Kind]*Policy

// DefaultPolicies wires the three standard policies.
func DefaultPolicies(resolver RoleResolver) Policies {
	return Policies{
		KindJobDescription: NewJobDescriptionPolicy(),
		KindRequisition:    NewRequisitionPolicy(),
		KindHiringApproval: NewHiringApprovalPolicy(resolver),
	}
}

// For returns the policy for kind.
func (ps Policies) For(kind Kind) (*Policy, error) {
	p, ok := ps[kind]
	if !ok {
		return nil, errors.InvalidInput("kind", fmt.Sprintf("no policy for %q", kind))
	}
	return p, nil
}
