package repository

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-hr-recruitment/internal/workflow"
)

// fakeRow feeds fixed values into Scan destinations in order.
type fakeRow struct {
	values []any
}

func (r fakeRow) Scan(dest ...any) error {
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: got %d destinations, have %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *workflow.Kind:
			*p = r.values[i].(workflow.Kind)
		case *workflow.Status:
			*p = r.values[i].(workflow.Status)
		case *[]byte:
			*p = r.values[i].([]byte)
		case *time.Time:
			*p = r.values[i].(time.Time)
		case **time.Time:
			*p = r.values[i].(*time.Time)
		case *int64:
			*p = r.values[i].(int64)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

func TestMarshalScanRoundTripsWorkflowState(t *testing.T) {
	at := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	e := &workflow.Entity{
		ID:    "req-9",
		Kind:  workflow.KindRequisition,
		Roles: workflow.RequisitionRoles,
		Chain: workflow.Chain{
			{Role: "HOD", Status: workflow.StepRejected, Action: workflow.ActionReturn, Date: &at, Approver: "hod", Comments: "fix"},
		},
		Status: workflow.StatusNeedsRevision,
	}

	roles, chain, err := marshalWorkflow(e)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(chain, &raw))
	assert.Equal(t, "Rejected", raw[0]["status"])
	assert.Equal(t, "return", raw[0]["action"])

	got, err := scanEntity(fakeRow{values: []any{
		e.ID, e.Kind, "Staff Nurse", "ward manager", "",
		"Medical Services", "Nursing", roles, chain, e.Status,
		at, (*time.Time)(nil), int64(3), at, at,
	}})
	require.NoError(t, err)

	assert.Equal(t, e.Roles, got.Roles)
	assert.Equal(t, e.Chain[0].Action, got.Chain[0].Action)
	assert.True(t, got.Chain[0].Date.Equal(at))
	assert.Equal(t, int64(3), got.Version)
	assert.Nil(t, got.CompletedAt)

	// status must be derivable from the stored chain alone
	p := workflow.NewRequisitionPolicy()
	assert.Equal(t, workflow.StatusNeedsRevision, p.DeriveStatus(got.Roles, got.Chain))
}

func TestMarshalEmptyChain(t *testing.T) {
	_, chain, err := marshalWorkflow(&workflow.Entity{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(chain))
}
