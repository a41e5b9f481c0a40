package api

import (
	"context"
	"net/http"

	service "github.com/okian/rally/internal/app"
	"github.com/okian/rally/internal/domain/model"
)

// ParticipantDependencies defines the roster operations used by the handler.
type ParticipantDependencies interface {
	AddParticipant(ctx context.Context, name string, level int) (model.Participant, error)
	UpdateParticipant(ctx context.Context, id string, upd service.ParticipantUpdate) (model.Participant, error)
	RemoveParticipant(ctx context.Context, id string) error
	Participants(ctx context.Context) ([]model.Participant, error)
}

type addParticipantRequest struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// ParticipantHandler handles participant requests.
type ParticipantHandler struct {
	deps ParticipantDependencies
}

// NewParticipantHandler creates a new participant handler.
func NewParticipantHandler(deps ParticipantDependencies) *ParticipantHandler {
	return &ParticipantHandler{deps: deps}
}

// HandleList handles GET /participants requests.
func (h *ParticipantHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_participants"
	ps, err := h.deps.Participants(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// HandleAdd handles POST /participants requests.
func (h *ParticipantHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_participant"
	var req addParticipantRequest
	if err := decode(r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	p, err := h.deps.AddParticipant(r.Context(), req.Name, req.Level)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleUpdate handles PATCH /participants/{id} requests.
func (h *ParticipantHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_participant"
	var upd service.ParticipantUpdate
	if err := decode(r, op, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	p, err := h.deps.UpdateParticipant(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleRemove handles DELETE /participants/{id} requests.
func (h *ParticipantHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.RemoveParticipant(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, "api.remove_participant", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
