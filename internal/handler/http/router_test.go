package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T, incidents *stubIncidentService) (*chi.Mux, jwt.Service) {
	t.Helper()
	tokens := jwt.NewJWTService("test-secret", "1h", "24h")
	r := NewRouter(RouterConfig{AppName: "admin-portal", Env: "test"}, tokens, Handlers{
		Auth:         NewAuthHandler(tokens, &stubAuthService{}, stubGoogle{}, ""),
		Attendance:   NewAttendanceHandler(nil),
		Incident:     NewIncidentHandler(incidents),
		Gate:         NewGateHandler(&stubGate{}),
		Chat:         NewChatHandler(&stubChatService{}),
		Approval:     NewApprovalHandler(&stubApprovalService{}),
		Notification: NewNotificationHandler(nil, tokens, nil),
	})
	return r, tokens
}

func TestRouter_NoPublicUploadsDirectory(t *testing.T) {
	router, _ := testRouter(t, &stubIncidentService{})

	for _, path := range []string{"/uploads/", "/uploads/incidents/", "/uploads/incidents/" + employeeID + "/note.pdf"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.NotContains(t, rec.Body.String(), "<pre>", path)
	}
}

func TestRouter_IncidentFileRequiresSession(t *testing.T) {
	incidents := &stubIncidentService{}
	router, tokens := testRouter(t, incidents)
	path := "/api/v1/incident/" + reportID + "/file"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "%PDF")

	access, _, err := tokens.GenerateAccessToken(employeeID, "ana@example.com", user.RoleEmployee)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
	assert.Equal(t, employeeID, incidents.gotActor.UserID)
}
