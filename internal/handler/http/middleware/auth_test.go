package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(svc jwt.Service, inner http.Handler) http.Handler {
	return jwtauth.Verifier(svc.JWTAuth())(AuthRequired(svc.JWTAuth())(inner))
}

func TestAuthRequired(t *testing.T) {
	svc := jwt.NewJWTService("test-secret", "1h", "24h")

	access, _, err := svc.GenerateAccessToken("u-1", "ana@example.com", user.RoleHR)
	require.NoError(t, err)
	refresh, _, err := svc.GenerateRefreshToken("u-1")
	require.NoError(t, err)

	var got user.Actor
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := protected(svc, inner)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"access token", access, http.StatusNoContent},
		{"refresh token rejected", refresh, http.StatusUnauthorized},
		{"garbage", "not.a.jwt", http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	assert.Equal(t, user.Actor{UserID: "u-1", Role: user.RoleHR}, got)
}

func TestRoleGuards(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		guard  func(http.Handler) http.Handler
		role   user.Role
		status int
	}{
		{"reviewer allows hr", RequireReviewer, user.RoleHR, http.StatusOK},
		{"reviewer rejects manager", RequireReviewer, user.RoleManager, http.StatusForbidden},
		{"approver allows manager", RequireApprover, user.RoleManager, http.StatusOK},
		{"approver rejects employee", RequireApprover, user.RoleEmployee, http.StatusForbidden},
		{"admin only", AdminOnly, user.RoleHR, http.StatusForbidden},
		{"gate inspect for hr", RequirePermission(user.PermissionGateInspect), user.RoleHR, http.StatusOK},
		{"gate inspect not for manager", RequirePermission(user.PermissionGateInspect), user.RoleManager, http.StatusForbidden},
		{"incident manage not for employee", RequirePermission(user.PermissionIncidentManage), user.RoleEmployee, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithActor(req.Context(), user.Actor{UserID: "u-1", Role: tt.role}))
			rec := httptest.NewRecorder()
			tt.guard(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRoleGuards_NoActor(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireApprover(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
