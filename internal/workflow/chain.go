package workflow

import (
	"fmt"
	"time"

	"github.com/pesio-ai/be-hr-recruitment/internal/platform/errors"
)

// Step is one role's verdict within a chain. A step has no identity beyond
// its position.
type Step struct {
	Role   string     `json:"role"`
	Status StepStatus `json:"status"`
	// Action records which action resolved the step. Reject and return both
	// store StepRejected; the action keeps them apart once serialized.
	Action   Action     `json:"action,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
	Approver string     `json:"approver,omitempty"`
	Comments string     `json:"comments,omitempty"`
}

// Chain is the ordered list of steps owned by one entity. It only grows, and
// holds at most one pending step, always in last position.
type Chain []Step

// Clone returns a deep copy of the chain.
func (c Chain) Clone() Chain {
	if c == nil {
		return nil
	}
	out := make(Chain, len(c))
	for i, s := range c {
		if s.Date != nil {
			d := *s.Date
			s.Date = &d
		}
		out[i] = s
	}
	return out
}

// Last returns the final step, if any.
func (c Chain) Last() (Step, bool) {
	if len(c) == 0 {
		return Step{}, false
	}
	return c[len(c)-1], true
}

// PendingCount counts steps still waiting on an approver.
func (c Chain) PendingCount() int {
	n := 0
	for _, s := range c {
		if s.Status == StepPending {
			n++
		}
	}
	return n
}

// FindCurrentStepIndex returns the index of the pending step. ok is false when
// the chain is empty or fully resolved.
func FindCurrentStepIndex(c Chain) (idx int, ok bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Status == StepPending {
			return i, true
		}
	}
	return -1, false
}

// AppendPendingStep returns a copy of c with a pending step for role appended.
func AppendPendingStep(c Chain, role string) (Chain, error) {
	if role == "" {
		return c, errors.InvalidInput("role", "role is required")
	}
	if _, ok := FindCurrentStepIndex(c); ok {
		return c, ErrPendingStepExists
	}
	out := append(c.Clone(), Step{Role: role, Status: StepPending})
	return out, nil
}

// ResolveCurrentStep returns a copy of c with the pending step resolved to
// outcome. It fails with ErrAlreadyResolved when nothing is pending.
func ResolveCurrentStep(c Chain, outcome StepStatus, action Action, actor, remarks string, now time.Time) (Chain, error) {
	if !outcome.IsTerminal() {
		return c, errors.InvalidInput("outcome", fmt.Sprintf("cannot resolve a step as %q", outcome))
	}
	idx, ok := FindCurrentStepIndex(c)
	if !ok {
		return c, ErrAlreadyResolved
	}

	out := c.Clone()
	at := now
	out[idx].Status = outcome
	out[idx].Action = action
	out[idx].Date = &at
	out[idx].Approver = actor
	out[idx].Comments = remarks
	return out, nil
}
