package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pesio-ai/be-hr-recruitment/internal/platform/errors"
	"github.com/pesio-ai/be-hr-recruitment/internal/platform/logger"
	"github.com/pesio-ai/be-hr-recruitment/internal/repository"
	"github.com/pesio-ai/be-hr-recruitment/internal/service"
	"github.com/pesio-ai/be-hr-recruitment/internal/workflow"
)

// UserHeader carries the acting user's identity.
const UserHeader = "X-User-ID"

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	service *service.WorkflowService
	log     *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(service *service.WorkflowService, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes mounts every endpoint on mux.
func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/api/v1/job-descriptions", h.create(workflow.KindJobDescription))
	mux.HandleFunc("/api/v1/requisitions", h.create(workflow.KindRequisition))
	mux.HandleFunc("/api/v1/hiring-approvals", h.create(workflow.KindHiringApproval))
	mux.HandleFunc("/api/v1/entities", h.ListEntities)
	mux.HandleFunc("/api/v1/entities/get", h.GetEntity)
	mux.HandleFunc("/api/v1/entities/audit", h.GetAuditTrail)
	mux.HandleFunc("/api/v1/entities/action", h.Act)
	mux.HandleFunc("/api/v1/entities/resubmit", h.Resubmit)
	mux.HandleFunc("/api/v1/entities/pending", h.Pending)
}

// Health reports liveness.
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// create handles submission of a new entity of kind.
func (h *HTTPHandler) create(kind workflow.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req service.CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.RequestedBy == "" {
			req.RequestedBy = r.Header.Get(UserHeader)
		}

		entity, err := h.service.Create(r.Context(), kind, &req)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		h.writeJSON(w, http.StatusCreated, entity)
	}
}

// GetEntity returns the entity with its timeline and history.
func (h *HTTPHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Entity ID is required", http.StatusBadRequest)
		return
	}

	view, err := h.service.View(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// GetAuditTrail returns the stored audit entries for an entity.
func (h *HTTPHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Entity ID is required", http.StatusBadRequest)
		return
	}

	entries, err := h.service.AuditTrail(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// ListEntities handles list requests filtered by kind and status.
func (h *HTTPHandler) ListEntities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filter := repository.EntityFilter{
		Status: workflow.Status(q.Get("status")),
	}
	if k := q.Get("kind"); k != "" {
		kind, err := workflow.ParseKind(k)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.Kind = kind
	}

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	entities, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"entities": entities,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// Act handles approve / reject / return requests.
func (h *HTTPHandler) Act(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req service.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if u := r.Header.Get(UserHeader); u != "" {
		req.Actor = u
	}

	entity, err := h.service.Act(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, entity)
}

// Resubmit handles resubmission of an entity returned for revision.
func (h *HTTPHandler) Resubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req service.ResubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if u := r.Header.Get(UserHeader); u != "" {
		req.Actor = u
	}

	entity, err := h.service.Resubmit(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, entity)
}

// Pending lists the entities waiting on a role.
func (h *HTTPHandler) Pending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entities, err := h.service.PendingFor(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"entities": entities,
		"total":    len(entities),
	})
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(errors.CodeOf(err))
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	h.writeJSON(w, status, map[string]string{
		"code":  string(errors.CodeOf(err)),
		"error": err.Error(),
	})
}

func httpStatus(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeUnsupportedAction:
		return http.StatusBadRequest
	case errors.ErrCodeMissingRemarks:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeAlreadyResolved, errors.ErrCodeVersionConflict, errors.ErrCodeConflict,
		workflow.ErrCodeNotRevisable, workflow.ErrCodeAlreadySubmitted, workflow.ErrCodePendingStepExists:
		return http.StatusConflict
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
