package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/rally/internal/app"
)

// GameDependencies defines the session operations used by the handler.
type GameDependencies interface {
	NextGame(ctx context.Context) (service.GameResult, error)
	CompleteGame(ctx context.Context, game int) (bool, error)
	ResetSession(ctx context.Context) error
}

type completeResponse struct {
	Game    int    `json:"game"`
	Status  string `json:"status"`
	Applied bool   `json:"applied"`
}

// GameHandler handles game and session requests.
type GameHandler struct {
	deps GameDependencies
}

// NewGameHandler creates a new game handler.
func NewGameHandler(deps GameDependencies) *GameHandler {
	return &GameHandler{deps: deps}
}

// HandleNext handles POST /games requests.
func (h *GameHandler) HandleNext(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.NextGame(r.Context())
	if err != nil {
		writeServiceError(w, "api.next_game", err)
		return
	}
	if len(res.Allocations) == 0 {
		// Nothing was allocated, so the game number was not consumed.
		writeJSON(w, http.StatusOK, res)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleComplete handles POST /games/{game}/complete requests. Completing the
// same game again acknowledges it as a duplicate.
func (h *GameHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	const op = "api.complete_game"
	game, err := strconv.Atoi(r.PathValue("game"))
	if err != nil || game < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: game %q", op, ErrBadRequest, r.PathValue("game")))
		return
	}
	applied, err := h.deps.CompleteGame(r.Context(), game)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	status := "applied"
	if !applied {
		status = "duplicate"
	}
	writeJSON(w, http.StatusOK, completeResponse{Game: game, Status: status, Applied: applied})
}

// HandleReset handles POST /session/reset requests.
func (h *GameHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.ResetSession(r.Context()); err != nil {
		writeServiceError(w, "api.reset_session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
