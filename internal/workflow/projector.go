package workflow

// StepClass is the visual classification of a position in the timeline.
type StepClass string

const (
	ClassApproved StepClass = "approved"
	ClassRejected StepClass = "rejected"
	ClassReturned StepClass = "returned"
	ClassCurrent  StepClass = "current"
	ClassFuture   StepClass = "future"
)

// ClassifyStep classifies position index of chain. Positions past the end of
// the chain are ClassFuture.
//
// A rejected step is a return when its action says so. Steps stored without
// an action fall back to the overall status: rejected under a terminally
// rejected entity, returned otherwise.
func ClassifyStep(chain Chain, index int, overall Status) StepClass {
	if index < 0 || index >= len(chain) {
		return ClassFuture
	}

	step := chain[index]
	switch step.Status {
	case StepApproved, StepReviewed:
		return ClassApproved
	case StepPending:
		return ClassCurrent
	case StepRejected:
		switch step.Action {
		case ActionReturn:
			return ClassReturned
		case ActionReject:
			return ClassRejected
		}
		if overall == StatusRejected {
			return ClassRejected
		}
		return ClassReturned
	}
	return ClassFuture
}

// CurrentPendingRole returns the role that must act next.
func CurrentPendingRole(e Entity) (string, bool) {
	idx, ok := FindCurrentStepIndex(e.Chain)
	if !ok {
		return "", false
	}
	return e.Chain[idx].Role, true
}

// TimelineEntry is one row of a progress view.
type TimelineEntry struct {
	Role  string    `json:"role"`
	Class StepClass `json:"class"`
	Step  *Step     `json:"step,omitempty"`
}

// Timeline renders every chain step followed, while the entity is pending,
// by the roles still ahead of the current one.
func Timeline(e Entity) []TimelineEntry {
	out := make([]TimelineEntry, 0, len(e.Chain)+len(e.Roles))
	for i := range e.Chain {
		step := e.Chain[i]
		out = append(out, TimelineEntry{
			Role:  step.Role,
			Class: ClassifyStep(e.Chain, i, e.Status),
			Step:  &step,
		})
	}

	role, ok := CurrentPendingRole(e)
	pos := indexOf(e.Roles, role)
	if !ok || pos < 0 {
		return out
	}
	for _, r := range e.Roles[pos+1:] {
		out = append(out, TimelineEntry{Role: r, Class: ClassFuture})
	}
	return out
}
