package workflow

import (
	"github.com/pesio-ai/be-hr-recruitment/internal/platform/errors"
)

const (
	ErrCodePendingStepExists errors.Code = "PENDING_STEP_EXISTS"
	ErrCodeNotRevisable      errors.Code = "NOT_REVISABLE"
	ErrCodeAlreadySubmitted  errors.Code = "ALREADY_SUBMITTED"
)

var (
	// ErrAlreadyResolved is returned when the chain has no pending step.
	ErrAlreadyResolved = errors.New(errors.ErrCodeAlreadyResolved, "entity has no pending approval step")
	// ErrUnsupportedAction is returned for actions a policy does not offer.
	ErrUnsupportedAction = errors.New(errors.ErrCodeUnsupportedAction, "action is not supported for this entity")
	// ErrMissingRemarks is returned when reject or return has no comment.
	ErrMissingRemarks = errors.New(errors.ErrCodeMissingRemarks, "remarks are required for this action")

	ErrPendingStepExists = errors.New(ErrCodePendingStepExists, "chain already has a pending step")
	ErrNotRevisable      = errors.New(ErrCodeNotRevisable, "entity is not awaiting revision")
	ErrAlreadySubmitted  = errors.New(ErrCodeAlreadySubmitted, "entity has already been submitted")
)
