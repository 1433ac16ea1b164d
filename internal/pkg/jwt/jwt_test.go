package jwt

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() Service {
	return NewJWTService("test-secret-key", "1h", "168h")
}

func TestUploadToken_RoundTrip(t *testing.T) {
	svc := newTestService()

	token, expiresAt, err := svc.GenerateUploadToken("user-1", 24*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.InDelta(t, time.Now().Add(24*time.Hour).Unix(), expiresAt, 5)

	userID, err := svc.ValidateUploadToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestUploadToken_Expired(t *testing.T) {
	svc := newTestService()

	token, _, err := svc.GenerateUploadToken("user-1", -time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateUploadToken(token)
	assert.Equal(t, ErrInvalidUploadToken, err)
}

func TestUploadToken_Rejections(t *testing.T) {
	svc := newTestService()

	access, _, err := svc.GenerateAccessToken("user-1", "u@example.com", user.RoleEmployee)
	require.NoError(t, err)

	other := NewJWTService("another-secret", "1h", "168h")
	foreign, _, err := other.GenerateUploadToken("user-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"access token", access},
		{"wrong signature", foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateUploadToken(tt.token)
			assert.Equal(t, ErrInvalidUploadToken, err)
		})
	}
}

func TestAccessToken_Claims(t *testing.T) {
	svc := newTestService()

	token, _, err := svc.GenerateAccessToken("user-1", "u@example.com", user.RoleHR)
	require.NoError(t, err)

	decoded, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)

	role, _ := decoded.Get("role")
	typ, _ := decoded.Get("type")
	uid, _ := decoded.Get("user_id")
	assert.Equal(t, "hr", role)
	assert.Equal(t, TokenTypeAccess, typ)
	assert.Equal(t, "user-1", uid)
}

func TestSSEToken(t *testing.T) {
	svc := newTestService()

	token, expiresIn, err := svc.GenerateSSEToken("user-1")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	userID, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	refresh, _, err := svc.GenerateRefreshToken("user-1")
	require.NoError(t, err)
	_, err = svc.ValidateSSEToken(refresh)
	assert.Error(t, err)
}
