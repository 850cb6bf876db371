package workflow

import (
	"fmt"
	"time"
)

// EventType distinguishes the synthetic creation event from chain steps.
type EventType string

const (
	EventCreated EventType = "created"
	EventStep    EventType = "step"
)

// HistoryEvent is one row of the audit trail.
type HistoryEvent struct {
	Type      EventType  `json:"type"`
	Role      string     `json:"role,omitempty"`
	Actor     string     `json:"actor,omitempty"`
	Status    StepStatus `json:"status,omitempty"`
	Class     StepClass  `json:"class,omitempty"`
	At        *time.Time `json:"at,omitempty"`
	Comment   string     `json:"comment,omitempty"`
	IsPending bool       `json:"is_pending"`
	// Elapsed is set on pending events only: time waited since the previous
	// event.
	Elapsed      time.Duration `json:"elapsed,omitempty"`
	ElapsedLabel string        `json:"elapsed_label,omitempty"`
}

// BuildHistory reconstructs the audit trail of e as of now. It never
// modifies e.
func BuildHistory(e Entity, now time.Time) []HistoryEvent {
	submitted := e.SubmittedAt
	events := make([]HistoryEvent, 0, len(e.Chain)+1)
	events = append(events, HistoryEvent{
		Type:    EventCreated,
		Actor:   e.RequestedBy,
		At:      &submitted,
		Comment: e.Justification,
	})

	prev := submitted
	for i, step := range e.Chain {
		ev := HistoryEvent{
			Type:      EventStep,
			Role:      step.Role,
			Actor:     step.Approver,
			Status:    step.Status,
			Class:     ClassifyStep(e.Chain, i, e.Status),
			Comment:   step.Comments,
			IsPending: step.Status == StepPending,
		}
		if ev.IsPending {
			ev.Elapsed = now.Sub(prev)
			if ev.Elapsed < 0 {
				ev.Elapsed = 0
			}
			ev.ElapsedLabel = HumanizeDuration(ev.Elapsed)
		} else if step.Date != nil {
			at := *step.Date
			ev.At = &at
			prev = at
		}
		events = append(events, ev)
	}
	return events
}

var humanUnits = []struct {
	name string
	size time.Duration
}{
	{"year", 365 * 24 * time.Hour},
	{"month", 30 * 24 * time.Hour},
	{"day", 24 * time.Hour},
	{"hour", time.Hour},
	{"minute", time.Minute},
	{"second", time.Second},
}

// HumanizeDuration renders d in its largest non-zero unit, rounded down:
// 90 minutes is "1 hour", 49 hours is "2 days".
func HumanizeDuration(d time.Duration) string {
	for _, u := range humanUnits {
		n := int64(d / u.size)
		if n < 1 {
			continue
		}
		if n == 1 {
			return "1 " + u.name
		}
		return fmt.Sprintf("%d %ss", n, u.name)
	}
	return "0 seconds"
}
