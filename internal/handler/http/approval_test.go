package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/approval"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/chat"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const requestID = "9d8c7b6a-5f4e-4d3c-8b2a-1a0f9e8d7c6b"

type stubApprovalService struct {
	approval.ApprovalService
	err       error
	gotActor  user.Actor
	gotID     string
	gotReq    approval.DecisionRequest
	gotTarget string
}

func (s *stubApprovalService) Decide(_ context.Context, actor user.Actor, id string, req approval.DecisionRequest) (approval.RequestResponse, error) {
	s.gotActor, s.gotID, s.gotReq = actor, id, req
	if s.err != nil {
		return approval.RequestResponse{}, s.err
	}
	state := approval.StateDenied
	if req.Approve {
		state = approval.StateApproved
	}
	return approval.RequestResponse{ID: id, State: string(state)}, nil
}

func (s *stubApprovalService) ActiveGrant(_ context.Context, userID, target string) (approval.GrantResponse, error) {
	s.gotTarget = target
	return approval.GrantResponse{Target: target, Active: true}, s.err
}

func approvalRouter(h ApprovalHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/approvals/{id}/approve", h.Approve)
	r.Post("/approvals/{id}/deny", h.Deny)
	r.Get("/access/grants", h.Grant)
	return r
}

func TestApprovalHandler_Approve(t *testing.T) {
	svc := &stubApprovalService{}
	router := approvalRouter(NewApprovalHandler(svc))
	reviewer := user.Actor{UserID: "mgr-1", Role: user.RoleManager}

	req := httptest.NewRequest(http.MethodPost, "/approvals/"+requestID+"/approve", strings.NewReader(`{"note":"ok for a week"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withActor(req, reviewer))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.gotReq.Approve)
	assert.Equal(t, "ok for a week", svc.gotReq.Note)
	assert.Equal(t, reviewer, svc.gotActor)
	assert.Equal(t, string(approval.StateApproved), decodeEnvelope(t, rec)["data"].(map[string]any)["state"])
}

func TestApprovalHandler_DenyWithoutBody(t *testing.T) {
	svc := &stubApprovalService{}
	router := approvalRouter(NewApprovalHandler(svc))

	req := httptest.NewRequest(http.MethodPost, "/approvals/"+requestID+"/deny", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withActor(req, user.Actor{UserID: "hr-1", Role: user.RoleHR}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.gotReq.Approve)
	assert.Empty(t, svc.gotReq.Note)
}

func TestApprovalHandler_DecideErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"already decided", approval.ErrInvalidTransition, http.StatusConflict},
		{"own request", approval.ErrSelfReview, http.StatusForbidden},
		{"missing", approval.ErrRequestNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := approvalRouter(NewApprovalHandler(&stubApprovalService{err: tt.err}))
			req := httptest.NewRequest(http.MethodPost, "/approvals/"+requestID+"/approve", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, withActor(req, user.Actor{UserID: "admin-1", Role: user.RoleAdmin}))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestApprovalHandler_Grant_RequiresTarget(t *testing.T) {
	svc := &stubApprovalService{}
	router := approvalRouter(NewApprovalHandler(svc))
	actor := user.Actor{UserID: employeeID, Role: user.RoleEmployee}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withActor(httptest.NewRequest(http.MethodGet, "/access/grants", nil), actor))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withActor(httptest.NewRequest(http.MethodGet, "/access/grants?target=/payroll", nil), actor))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/payroll", svc.gotTarget)
}

type stubChatService struct {
	chat.ChatService
	err       error
	gotType   chat.ChooseTypeRequest
	gotSubmit chat.SubmitChatRequest
}

func (s *stubChatService) ChooseType(_ context.Context, _ string, req chat.ChooseTypeRequest) (chat.SessionResponse, error) {
	s.gotType = req
	return chat.ToSessionResponse(chat.Session{State: chat.StateTypeChosen}), s.err
}

func (s *stubChatService) Submit(_ context.Context, _ string, req chat.SubmitChatRequest) (chat.SessionResponse, error) {
	s.gotSubmit = req
	if s.err != nil {
		return chat.SessionResponse{}, s.err
	}
	return chat.ToSessionResponse(chat.Session{State: chat.StateSubmitted}), nil
}

func TestChatHandler_ChooseType(t *testing.T) {
	svc := &stubChatService{}
	h := NewChatHandler(svc)
	actor := user.Actor{UserID: employeeID, Role: user.RoleEmployee}

	rec := httptest.NewRecorder()
	h.ChooseType(rec, withActor(httptest.NewRequest(http.MethodPost, "/chat/access/type", strings.NewReader(`{"request_type":"access"}`)), actor))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "access", svc.gotType.RequestType)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, string(chat.StateTypeChosen), data["state"])

	rec = httptest.NewRecorder()
	h.ChooseType(rec, withActor(httptest.NewRequest(http.MethodPost, "/chat/access/type", strings.NewReader(`{"request_type":"payroll"}`)), actor))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestChatHandler_Submit(t *testing.T) {
	actor := user.Actor{UserID: employeeID, Role: user.RoleEmployee}

	svc := &stubChatService{}
	rec := httptest.NewRecorder()
	NewChatHandler(svc).Submit(rec, withActor(httptest.NewRequest(http.MethodPost, "/chat/access/submit", nil), actor))
	assert.Equal(t, http.StatusCreated, rec.Code)

	svc = &stubChatService{err: chat.ErrOutOfOrder}
	rec = httptest.NewRecorder()
	NewChatHandler(svc).Submit(rec, withActor(httptest.NewRequest(http.MethodPost, "/chat/access/submit", strings.NewReader(`{"reason":"quarter close"}`)), actor))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "quarter close", svc.gotSubmit.Reason)
}

func TestChatHandler_RequiresActor(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChatHandler(&stubChatService{}).Submit(rec, httptest.NewRequest(http.MethodPost, "/chat/access/submit", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
