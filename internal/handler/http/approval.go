package http

import (
	"net/http"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/approval"
	"github.com/cmlabs-hris/admin-portal-backend/internal/handler/http/middleware"
	"github.com/cmlabs-hris/admin-portal-backend/internal/handler/http/response"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type ApprovalHandler interface {
	Approve(w http.ResponseWriter, r *http.Request)
	Deny(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	Grant(w http.ResponseWriter, r *http.Request)
}

type approvalHandlerImpl struct {
	approvalService approval.ApprovalService
}

func NewApprovalHandler(approvalService approval.ApprovalService) ApprovalHandler {
	return &approvalHandlerImpl{approvalService: approvalService}
}

func (h *approvalHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *approvalHandlerImpl) Deny(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *approvalHandlerImpl) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "id must be a valid UUID", nil)
		return
	}

	var req approval.DecisionRequest
	if err := decodeOptional(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.Approve = approve
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.approvalService.Decide(r.Context(), actor, id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	msg := "Request denied"
	if approve {
		msg = "Request approved"
	}
	response.SuccessWithMessage(w, msg, result)
}

// Status is polled by the requester's chat view.
func (h *approvalHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "id must be a valid UUID", nil)
		return
	}

	result, err := h.approvalService.Status(r.Context(), actor, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *approvalHandlerImpl) Grant(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}
	target := r.URL.Query().Get("target")
	if validator.IsEmpty(target) {
		response.BadRequest(w, "target is required", nil)
		return
	}

	result, err := h.approvalService.ActiveGrant(r.Context(), actor.UserID, target)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}
