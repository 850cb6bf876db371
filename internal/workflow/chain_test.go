package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-hr-recruitment/internal/platform/errors"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestFindCurrentStepIndex(t *testing.T) {
	_, ok := FindCurrentStepIndex(nil)
	assert.False(t, ok)

	chain := Chain{
		{Role: "Supervisor", Status: StepApproved},
		{Role: "HOD", Status: StepPending},
	}
	idx, ok := FindCurrentStepIndex(chain)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	chain[1].Status = StepApproved
	_, ok = FindCurrentStepIndex(chain)
	assert.False(t, ok)
}

func TestAppendPendingStep(t *testing.T) {
	chain, err := AppendPendingStep(nil, "Supervisor")
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, StepPending, chain[0].Status)

	_, err = AppendPendingStep(chain, "HOD")
	assert.ErrorIs(t, err, ErrPendingStepExists)

	_, err = AppendPendingStep(nil, "")
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
}

func TestResolveCurrentStepDoesNotMutateInput(t *testing.T) {
	chain := Chain{{Role: "HOD", Status: StepPending}}

	out, err := ResolveCurrentStep(chain, StepApproved, ActionApprove, "dr. lee", "ok", t0)
	require.NoError(t, err)

	assert.Equal(t, StepPending, chain[0].Status)
	assert.Nil(t, chain[0].Date)

	assert.Equal(t, StepApproved, out[0].Status)
	assert.Equal(t, ActionApprove, out[0].Action)
	assert.Equal(t, "dr. lee", out[0].Approver)
	assert.Equal(t, "ok", out[0].Comments)
	require.NotNil(t, out[0].Date)
	assert.True(t, out[0].Date.Equal(t0))
}

func TestResolveCurrentStepFailures(t *testing.T) {
	resolved := Chain{{Role: "HOD", Status: StepApproved}}
	_, err := ResolveCurrentStep(resolved, StepApproved, ActionApprove, "a", "", t0)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	_, err = ResolveCurrentStep(nil, StepRejected, ActionReject, "a", "no", t0)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	pending := Chain{{Role: "HOD", Status: StepPending}}
	_, err = ResolveCurrentStep(pending, StepPending, ActionApprove, "a", "", t0)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
}

func TestChainCloneIsDeep(t *testing.T) {
	at := t0
	chain := Chain{{Role: "HOD", Status: StepApproved, Date: &at}}
	clone := chain.Clone()
	clone[0].Role = "changed"
	*clone[0].Date = t0.Add(time.Hour)

	assert.Equal(t, "HOD", chain[0].Role)
	assert.True(t, chain[0].Date.Equal(t0))
	assert.Nil(t, Chain(nil).Clone())
}
