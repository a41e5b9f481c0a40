package api

import (
	"context"
	"net/http"

	"github.com/okian/rally/internal/domain/model"
)

// RulesDependencies defines the rule operations used by the handler.
type RulesDependencies interface {
	Rules(ctx context.Context) model.Rules
	SetRules(ctx context.Context, rules model.Rules) error
}

// RulesHandler handles rules requests.
type RulesHandler struct {
	deps RulesDependencies
}

// NewRulesHandler creates a new rules handler.
func NewRulesHandler(deps RulesDependencies) *RulesHandler {
	return &RulesHandler{deps: deps}
}

// HandleGet handles GET /rules requests.
func (h *RulesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Rules(r.Context()))
}

// HandlePut handles PUT /rules requests. The body replaces every rule.
func (h *RulesHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_rules"
	var rules model.Rules
	if err := decode(r, op, &rules); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.SetRules(r.Context(), rules); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Rules(r.Context()))
}
