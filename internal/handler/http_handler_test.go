package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-hr-recruitment/internal/client"
	"github.com/pesio-ai/be-hr-recruitment/internal/platform/logger"
	"github.com/pesio-ai/be-hr-recruitment/internal/repository"
	"github.com/pesio-ai/be-hr-recruitment/internal/service"
	"github.com/pesio-ai/be-hr-recruitment/internal/workflow"
)

func newTestService(t *testing.T) *service.WorkflowService {
	t.Helper()
	now := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	return service.NewWorkflowService(
		repository.NewMemoryStore(),
		repository.NewMemoryAuditRepository(),
		workflow.DefaultPolicies(nil),
		client.NewEventPublisher(nil, "", zerolog.Nop()),
		service.Config{Clock: func() time.Time { return now }},
		logger.Nop(),
	)
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	NewHTTPHandler(newTestService(t), logger.Nop()).RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, mux http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeEntity(t *testing.T, rec *httptest.ResponseRecorder) workflow.Entity {
	t.Helper()
	var e workflow.Entity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestHTTPCreateAndAct(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, http.MethodPost, "/api/v1/job-descriptions",
		map[string]string{"subject": "Lab Technician"}, UserHeader, "alice")
	require.Equal(t, http.StatusCreated, rec.Code)
	jd := decodeEntity(t, rec)
	assert.Equal(t, "alice", jd.RequestedBy)
	assert.Equal(t, workflow.Status("Pending Supervisor Approval"), jd.Status)

	rec = do(t, mux, http.MethodPost, "/api/v1/entities/action",
		map[string]string{"id": jd.ID, "action": "approve"}, UserHeader, "bob")
	require.Equal(t, http.StatusOK, rec.Code)
	jd = decodeEntity(t, rec)
	assert.Equal(t, "bob", jd.Chain[0].Approver)
	assert.Equal(t, workflow.Status("Pending HOD Approval"), jd.Status)

	rec = do(t, mux, http.MethodGet, "/api/v1/entities/get?id="+jd.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view service.EntityView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "HOD", view.CurrentRole)
	assert.Len(t, view.Timeline, 3)

	rec = do(t, mux, http.MethodGet, "/api/v1/entities/pending?role=HOD", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), jd.ID)

	rec = do(t, mux, http.MethodGet, "/api/v1/entities/audit?id="+jd.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"action":"approve"`)
}

func TestHTTPErrorMapping(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, http.MethodPost, "/api/v1/requisitions", map[string]string{"subject": "Porter"})
	require.Equal(t, http.StatusCreated, rec.Code)
	req := decodeEntity(t, rec)

	rec = do(t, mux, http.MethodPost, "/api/v1/hiring-approvals", map[string]string{"subject": "Cashier"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, mux, http.MethodPost, "/api/v1/hiring-approvals",
		map[string]string{"subject": "Cashier", "department": "Accounts"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		name   string
		method string
		target string
		body   any
		want   int
	}{
		{"wrong method", http.MethodGet, "/api/v1/entities/action", nil, http.StatusMethodNotAllowed},
		{"bad body", http.MethodPost, "/api/v1/entities/action", "not an object", http.StatusBadRequest},
		{"unknown action", http.MethodPost, "/api/v1/entities/action", map[string]string{"id": req.ID, "action": "skip"}, http.StatusBadRequest},
		{"missing remarks", http.MethodPost, "/api/v1/entities/action", map[string]string{"id": req.ID, "action": "reject"}, http.StatusUnprocessableEntity},
		{"not found", http.MethodGet, "/api/v1/entities/get?id=missing", nil, http.StatusNotFound},
		{"missing id", http.MethodGet, "/api/v1/entities/get", nil, http.StatusBadRequest},
		{"stale version", http.MethodPost, "/api/v1/entities/action", map[string]any{"id": req.ID, "action": "approve", "expected_version": 9}, http.StatusConflict},
		{"not revisable", http.MethodPost, "/api/v1/entities/resubmit", map[string]string{"id": req.ID}, http.StatusConflict},
		{"bad kind filter", http.MethodGet, "/api/v1/entities?kind=offer", nil, http.StatusBadRequest},
		{"pending without role", http.MethodGet, "/api/v1/entities/pending", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	rec = do(t, mux, http.MethodPost, "/api/v1/entities/action",
		map[string]string{"id": req.ID, "action": "reject", "remarks": "no budget"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, mux, http.MethodPost, "/api/v1/entities/action",
		map[string]string{"id": req.ID, "action": "approve"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "ALREADY_RESOLVED")
}

func TestHTTPListAndHealth(t *testing.T) {
	mux := newTestMux(t)

	for _, s := range []string{"a", "b", "c"} {
		require.Equal(t, http.StatusCreated,
			do(t, mux, http.MethodPost, "/api/v1/requisitions", map[string]string{"subject": s}).Code)
	}

	rec := do(t, mux, http.MethodGet, "/api/v1/entities?kind=requisition&page_size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Entities []workflow.Entity `json:"entities"`
		Total    int64             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.Total)
	assert.Len(t, body.Entities, 2)

	rec = do(t, mux, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}
