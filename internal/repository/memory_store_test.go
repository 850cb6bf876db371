package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-hr-recruitment/internal/platform/errors"
	"github.com/pesio-ai/be-hr-recruitment/internal/workflow"
)

func pendingEntity(id string, kind workflow.Kind, role string) *workflow.Entity {
	return &workflow.Entity{
		ID:     id,
		Kind:   kind,
		Roles:  []string{role},
		Chain:  workflow.Chain{{Role: role, Status: workflow.StepPending}},
		Status: workflow.Status("Pending " + role + " Approval"),
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	e := &workflow.Entity{Kind: workflow.KindJobDescription, Subject: "Staff Nurse"}
	require.NoError(t, store.Create(ctx, e))
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, int64(1), e.Version)

	got, err := store.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Staff Nurse", got.Subject)

	err = store.Create(ctx, &workflow.Entity{ID: e.ID})
	assert.Equal(t, errors.ErrCodeConflict, errors.CodeOf(err))

	_, err = store.GetByID(ctx, "missing")
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	e := pendingEntity("jd-1", workflow.KindJobDescription, "Supervisor")
	require.NoError(t, store.Create(ctx, e))

	e.Chain[0].Status = workflow.StepApproved
	got, err := store.GetByID(ctx, "jd-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StepPending, got.Chain[0].Status)

	got.Chain[0].Role = "changed"
	again, _ := store.GetByID(ctx, "jd-1")
	assert.Equal(t, "Supervisor", again.Chain[0].Role)
}

func TestMemoryStoreOptimisticUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	e := pendingEntity("req-1", workflow.KindRequisition, "HOD")
	require.NoError(t, store.Create(ctx, e))

	first, _ := store.GetByID(ctx, "req-1")
	second, _ := store.GetByID(ctx, "req-1")

	first.Status = workflow.StatusRejected
	require.NoError(t, store.Update(ctx, first, first.Version))
	assert.Equal(t, int64(2), first.Version)

	second.Status = workflow.StatusApproved
	err := store.Update(ctx, second, second.Version)
	assert.ErrorIs(t, err, ErrVersionConflict)

	got, _ := store.GetByID(ctx, "req-1")
	assert.Equal(t, workflow.StatusRejected, got.Status)

	err = store.Update(ctx, &workflow.Entity{ID: "missing"}, 1)
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	require.NoError(t, store.Create(ctx, pendingEntity("jd-1", workflow.KindJobDescription, "Supervisor")))
	require.NoError(t, store.Create(ctx, pendingEntity("req-1", workflow.KindRequisition, "HOD")))
	require.NoError(t, store.Create(ctx, pendingEntity("req-2", workflow.KindRequisition, "HR Review")))

	all, total, err := store.List(ctx, EntityFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 3)
	assert.Equal(t, "req-2", all[0].ID)

	reqs, total, err := store.List(ctx, EntityFilter{Kind: workflow.KindRequisition})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, reqs, 2)

	hod, _, err := store.List(ctx, EntityFilter{PendingRole: "HOD"})
	require.NoError(t, err)
	require.Len(t, hod, 1)
	assert.Equal(t, "req-1", hod[0].ID)

	page, total, err := store.List(ctx, EntityFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, "req-1", page[0].ID)

	empty, _, err := store.List(ctx, EntityFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryAuditRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAuditRepository()

	require.NoError(t, repo.Append(ctx, &AuditEntry{EntityID: "jd-1", Action: "submitted", PerformedBy: "a"}))
	require.NoError(t, repo.Append(ctx, &AuditEntry{EntityID: "jd-2", Action: "submitted", PerformedBy: "b"}))
	require.NoError(t, repo.Append(ctx, &AuditEntry{EntityID: "jd-1", Action: "approve", PerformedBy: "c"}))

	entries, err := repo.GetByEntityID(ctx, "jd-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "submitted", entries[0].Action)
	assert.Equal(t, "approve", entries[1].Action)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].PerformedAt.IsZero())
}
