package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 seconds"},
		{-time.Minute, "0 seconds"},
		{500 * time.Millisecond, "0 seconds"},
		{time.Second, "1 second"},
		{59 * time.Second, "59 seconds"},
		{90 * time.Minute, "1 hour"},
		{49 * time.Hour, "2 days"},
		{45 * 24 * time.Hour, "1 month"},
		{800 * 24 * time.Hour, "2 years"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HumanizeDuration(tt.in), tt.in.String())
	}
}

func TestBuildHistory(t *testing.T) {
	p := NewRequisitionPolicy()
	e := submitted(t, p, Entity{RequestedBy: "ward manager", Justification: "two nurses resigned"})

	e, err := p.Transition(e, ActionApprove, "hod", "", t0.Add(3*time.Hour))
	require.NoError(t, err)
	snapshot := e.Clone()

	now := t0.Add(3*time.Hour + 2*24*time.Hour + 5*time.Hour)
	events := BuildHistory(e, now)
	require.Len(t, events, 3)

	created := events[0]
	assert.Equal(t, EventCreated, created.Type)
	assert.Equal(t, "ward manager", created.Actor)
	assert.Equal(t, "two nurses resigned", created.Comment)
	require.NotNil(t, created.At)
	assert.True(t, created.At.Equal(t0))

	approved := events[1]
	assert.Equal(t, "HOD", approved.Role)
	assert.Equal(t, "hod", approved.Actor)
	assert.Equal(t, ClassApproved, approved.Class)
	assert.False(t, approved.IsPending)
	assert.Zero(t, approved.Elapsed)

	pending := events[2]
	assert.True(t, pending.IsPending)
	assert.Nil(t, pending.At)
	assert.Equal(t, "Director/Dean", pending.Role)
	assert.Equal(t, 2*24*time.Hour+5*time.Hour, pending.Elapsed)
	assert.Equal(t, "2 days", pending.ElapsedLabel)

	assert.Equal(t, snapshot, e)
}

func TestBuildHistoryFirstStepMeasuresFromSubmission(t *testing.T) {
	p := NewJobDescriptionPolicy()
	e := submitted(t, p, Entity{RequestedBy: "requester"})

	events := BuildHistory(e, t0.Add(10*time.Minute))
	require.Len(t, events, 2)
	assert.Equal(t, "10 minutes", events[1].ElapsedLabel)
}
