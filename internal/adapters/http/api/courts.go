package api

import (
	"context"
	"net/http"

	"github.com/okian/rally/internal/domain/model"
)

// CourtDependencies defines the court operations used by the handler.
type CourtDependencies interface {
	AddCourt(ctx context.Context, name string) (model.Court, error)
	SetCourtActive(ctx context.Context, id string, active bool) (model.Court, error)
	Courts(ctx context.Context) ([]model.Court, error)
}

type addCourtRequest struct {
	Name string `json:"name"`
}

type setCourtRequest struct {
	Active *bool `json:"active"`
}

// CourtHandler handles court requests.
type CourtHandler struct {
	deps CourtDependencies
}

// NewCourtHandler creates a new court handler.
func NewCourtHandler(deps CourtDependencies) *CourtHandler {
	return &CourtHandler{deps: deps}
}

// HandleList handles GET /courts requests.
func (h *CourtHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	courts, err := h.deps.Courts(r.Context())
	if err != nil {
		writeServiceError(w, "api.list_courts", err)
		return
	}
	writeJSON(w, http.StatusOK, courts)
}

// HandleAdd handles POST /courts requests.
func (h *CourtHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_court"
	var req addCourtRequest
	if err := decode(r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	c, err := h.deps.AddCourt(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// HandleSetActive handles PATCH /courts/{id} requests.
func (h *CourtHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_court"
	var req setCourtRequest
	if err := decode(r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.Active == nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	c, err := h.deps.SetCourtActive(r.Context(), r.PathValue("id"), *req.Active)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
