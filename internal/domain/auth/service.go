package auth

import (
	"context"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
)

// AuthService issues sessions. Login and LoginWithGoogle consult the
// attendance gate after verifying credentials and return a *gate.DeniedError
// when it refuses.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest, session SessionTrackingRequest) (TokenResponse, error)
	Login(ctx context.Context, req LoginRequest, session SessionTrackingRequest) (TokenResponse, error)
	LoginWithGoogle(ctx context.Context, profile GoogleProfile, session SessionTrackingRequest) (TokenResponse, error)
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (AccessTokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (user.UserResponse, error)
}
