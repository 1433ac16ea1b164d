package auth

import "errors"

var (
	ErrInvalidCredentials         = errors.New("invalid email or password")
	ErrInvalidToken               = errors.New("invalid or expired token")
	ErrRefreshTokenRevoked        = errors.New("refresh token has been revoked")
	ErrRefreshTokenCookieNotFound = errors.New("refresh token cookie not found")
	ErrGoogleNotConfigured        = errors.New("google sign-in is not configured")
	ErrGoogleEmailNotVerified     = errors.New("google account email is not verified")
	ErrStateMismatch              = errors.New("oauth state mismatch")
)
