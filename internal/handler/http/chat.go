package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/chat"
	"github.com/cmlabs-hris/admin-portal-backend/internal/handler/http/middleware"
	"github.com/cmlabs-hris/admin-portal-backend/internal/handler/http/response"
)

type ChatHandler interface {
	Start(w http.ResponseWriter, r *http.Request)
	ChooseType(w http.ResponseWriter, r *http.Request)
	ChooseTarget(w http.ResponseWriter, r *http.Request)
	Submit(w http.ResponseWriter, r *http.Request)
	Reset(w http.ResponseWriter, r *http.Request)
	Messages(w http.ResponseWriter, r *http.Request)
}

type chatHandlerImpl struct {
	chatService chat.ChatService
}

func NewChatHandler(chatService chat.ChatService) ChatHandler {
	return &chatHandlerImpl{chatService: chatService}
}

// decodeOptional accepts an empty body as the zero value.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *chatHandlerImpl) Start(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	result, err := h.chatService.Start(r.Context(), actor.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *chatHandlerImpl) ChooseType(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req chat.ChooseTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.chatService.ChooseType(r.Context(), actor.UserID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *chatHandlerImpl) ChooseTarget(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req chat.ChooseTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.chatService.ChooseTarget(r.Context(), actor.UserID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *chatHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req chat.SubmitChatRequest
	if err := decodeOptional(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.chatService.Submit(r.Context(), actor.UserID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Request submitted for review", result)
}

func (h *chatHandlerImpl) Reset(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	result, err := h.chatService.Reset(r.Context(), actor.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *chatHandlerImpl) Messages(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	result, err := h.chatService.Messages(r.Context(), actor.UserID, getIntQueryParam(r, "limit", 0))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}
