package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/gate"
	"github.com/cmlabs-hris/admin-portal-backend/internal/handler/http/response"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type GateHandler interface {
	Check(w http.ResponseWriter, r *http.Request)
}

type gateHandlerImpl struct {
	gate gate.Gate
}

func NewGateHandler(g gate.Gate) GateHandler {
	return &gateHandlerImpl{gate: g}
}

// Check runs the login gate for a user without signing anyone in. Side effects
// such as the upload-link email happen exactly as they would at login.
func (h *gateHandlerImpl) Check(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !validator.IsValidUUID(userID) {
		response.BadRequest(w, "userId must be a valid UUID", nil)
		return
	}

	decision := h.gate.Evaluate(r.Context(), userID)
	slog.Info("gate check", "user_id", userID, "outcome", decision.Outcome, "allowed", decision.Allowed)
	response.Success(w, decision)
}
