// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/rally/internal/app"
	"github.com/okian/rally/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	ParticipantDependencies
	CourtDependencies
	GameDependencies
	RulesDependencies
	StatsProvider
}

// Server wires HTTP routes for the rotation API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	participantHandler *ParticipantHandler
	courtHandler       *CourtHandler
	gameHandler        *GameHandler
	rulesHandler       *RulesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		participantHandler: NewParticipantHandler(deps),
		courtHandler:       NewCourtHandler(deps),
		gameHandler:        NewGameHandler(deps),
		rulesHandler:       NewRulesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /participants", MetricsMiddleware(s.participantHandler.HandleList, "participants"))
	mux.HandleFunc("POST /participants", MetricsMiddleware(s.participantHandler.HandleAdd, "participants"))
	mux.HandleFunc("PATCH /participants/{id}", MetricsMiddleware(s.participantHandler.HandleUpdate, "participant"))
	mux.HandleFunc("DELETE /participants/{id}", MetricsMiddleware(s.participantHandler.HandleRemove, "participant"))

	mux.HandleFunc("GET /courts", MetricsMiddleware(s.courtHandler.HandleList, "courts"))
	mux.HandleFunc("POST /courts", MetricsMiddleware(s.courtHandler.HandleAdd, "courts"))
	mux.HandleFunc("PATCH /courts/{id}", MetricsMiddleware(s.courtHandler.HandleSetActive, "court"))

	mux.HandleFunc("POST /games", MetricsMiddleware(s.gameHandler.HandleNext, "games"))
	mux.HandleFunc("POST /games/{game}/complete", MetricsMiddleware(s.gameHandler.HandleComplete, "game_complete"))
	mux.HandleFunc("POST /session/reset", MetricsMiddleware(s.gameHandler.HandleReset, "session_reset"))

	mux.HandleFunc("GET /rules", MetricsMiddleware(s.rulesHandler.HandleGet, "rules"))
	mux.HandleFunc("PUT /rules", MetricsMiddleware(s.rulesHandler.HandlePut, "rules"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service error kinds into status codes.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	err = fmt.Errorf("%s: %w", op, err)
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, model.ErrInvalidRules):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrUnknownGame):
		writeError(w, http.StatusConflict, "unknown_game", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decode reads a JSON body, rejecting unknown fields.
func decode(r *http.Request, op string, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err)
	}
	return nil
}
