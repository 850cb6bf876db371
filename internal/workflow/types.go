// Package workflow implements the approval workflow engine for recruitment
// entities: job descriptions, requisitions and hiring approvals.
//
// Every function in this package is a pure computation over values. Callers
// own persistence and must apply transitions for one entity strictly in
// sequence.
package workflow

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies the entity variant and therefore the policy that governs it.
type Kind string

const (
	KindJobDescription Kind = "job_description"
	KindRequisition    Kind = "requisition"
	KindHiringApproval Kind = "hiring_approval"
)

// ParseKind validates a raw kind string.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindJobDescription, KindRequisition, KindHiringApproval:
		return k, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// StepStatus is the stored outcome of one approval step.
type StepStatus string

const (
	StepPending  StepStatus = "Pending"
	StepApproved StepStatus = "Approved"
	StepRejected StepStatus = "Rejected"
	StepReviewed StepStatus = "Reviewed"
)

// IsTerminal reports whether the step has been resolved.
func (s StepStatus) IsTerminal() bool {
	return s == StepApproved || s == StepRejected || s == StepReviewed
}

// Action is what an approver does to the current step.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionReturn  Action = "return"
)

// ParseAction validates a raw action string.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionApprove, ActionReject, ActionReturn:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// RequiresRemarks reports whether the action must carry a comment.
func (a Action) RequiresRemarks() bool {
	return a == ActionReject || a == ActionReturn
}

// Status is the overall, human-facing status of an entity. It is always
// derived from the approval chain.
type Status string

const (
	StatusDraft         Status = "Draft"
	StatusApproved      Status = "Approved"
	StatusRejected      Status = "Rejected"
	StatusNeedsRevision Status = "Needs Revision"
	StatusUnknown       Status = "Unknown"
)

// IsTerminal reports whether no further transition can succeed.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// IsPending reports whether the entity is waiting on an approver.
func (s Status) IsPending() bool {
	return strings.HasPrefix(string(s), "Pending ")
}

// Entity is the shared shape of job descriptions, requisitions and hiring
// approvals.
type Entity struct {
	ID            string     `json:"id"`
	Kind          Kind       `json:"kind"`
	Subject       string     `json:"subject"`
	RequestedBy   string     `json:"requested_by"`
	Justification string     `json:"justification,omitempty"`
	Department    string     `json:"department,omitempty"`
	Section       string     `json:"section,omitempty"`
	Roles         []string   `json:"roles"`
	Chain         Chain      `json:"approval_chain"`
	Status        Status     `json:"status"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	CompletedAt   *time.Time `json:"completion_date,omitempty"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate it freely.
func (e Entity) Clone() Entity {
	out := e
	out.Roles = append([]string(nil), e.Roles...)
	out.Chain = e.Chain.Clone()
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
