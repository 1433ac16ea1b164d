package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/auth"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/gate"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/database"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/jwt"
	"github.com/cmlabs-hris/admin-portal-backend/internal/repository/postgresql"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/crypto/bcrypt"
)

const providerGoogle = "google"

type AuthServiceImpl struct {
	tx       database.TxFunc
	users    user.UserRepository
	tokens   jwt.Service
	sessions postgresql.JWTRepository
	gate     gate.Gate
}

func NewAuthService(tx database.TxFunc, userRepository user.UserRepository, jwtService jwt.Service, jwtRepository postgresql.JWTRepository, loginGate gate.Gate) *AuthServiceImpl {
	if loginGate == nil {
		loginGate = gate.AllowAll{}
	}
	return &AuthServiceImpl{
		tx:       tx,
		users:    userRepository,
		tokens:   jwtService,
		sessions: jwtRepository,
		gate:     loginGate,
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Register creates an employee account with a password and signs it in.
// A brand-new account has no attendance history, so the gate is not consulted.
func (a *AuthServiceImpl) Register(ctx context.Context, req auth.RegisterRequest, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	_, err := a.users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return auth.TokenResponse{}, user.ErrUserEmailExists
	case !errors.Is(err, user.ErrUserNotFound):
		return auth.TokenResponse{}, fmt.Errorf("failed to get user data by email: %w", err)
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := user.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: &hashed,
		Role:         user.RoleEmployee,
	}
	if req.Department != "" {
		newUser.Department = &req.Department
	}

	var resp auth.TokenResponse
	err = a.tx(ctx, func(txCtx context.Context) error {
		created, err := a.users.Create(txCtx, newUser)
		if err != nil {
			return err
		}
		resp, err = a.issueSession(txCtx, created, session)
		return err
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}
	return resp, nil
}

// Login checks the password, then asks the gate before issuing tokens.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	userData, err := a.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if userData.PasswordHash == nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*userData.PasswordHash), []byte(req.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	return a.admit(ctx, userData, session)
}

// LoginWithGoogle signs in a verified Google identity, creating or linking
// the local account first. The gate applies the same as for password logins.
func (a *AuthServiceImpl) LoginWithGoogle(ctx context.Context, profile auth.GoogleProfile, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	userData, err := a.users.GetByEmail(ctx, profile.Email)
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		provider := providerGoogle
		googleID := profile.GoogleID
		userData, err = a.users.Create(ctx, user.User{
			Email:           profile.Email,
			Name:            profile.Name,
			Role:            user.RoleEmployee,
			OAuthProvider:   &provider,
			OAuthProviderID: &googleID,
		})
		if err != nil {
			return auth.TokenResponse{}, fmt.Errorf("failed to create user: %w", err)
		}
	case err != nil:
		return auth.TokenResponse{}, fmt.Errorf("failed to get user data by email: %w", err)
	case userData.OAuthProvider == nil || userData.OAuthProviderID == nil:
		userData, err = a.users.LinkGoogleAccount(ctx, profile.GoogleID, userData.Email)
		if err != nil {
			return auth.TokenResponse{}, fmt.Errorf("failed to link google account: %w", err)
		}
	}

	return a.admit(ctx, userData, session)
}

func (a *AuthServiceImpl) admit(ctx context.Context, userData user.User, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	decision := a.gate.Evaluate(ctx, userData.ID)
	if err := decision.Err(); err != nil {
		slog.Info("login refused by attendance gate",
			"user_id", userData.ID,
			"outcome", decision.Outcome,
			"absence_count", decision.AbsenceCount,
		)
		return auth.TokenResponse{}, err
	}

	var resp auth.TokenResponse
	err := a.tx(ctx, func(txCtx context.Context) error {
		var err error
		resp, err = a.issueSession(txCtx, userData, session)
		return err
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}
	return resp, nil
}

// issueSession mints an access/refresh pair and stores the refresh token.
func (a *AuthServiceImpl) issueSession(ctx context.Context, u user.User, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	var resp auth.TokenResponse
	var err error

	resp.AccessToken, resp.AccessTokenExpiresIn, err = a.tokens.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}
	resp.RefreshToken, resp.RefreshTokenExpiresIn, err = a.tokens.GenerateRefreshToken(u.ID)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create refresh token: %w", err)
	}
	if err := a.sessions.CreateRefreshToken(ctx, u.ID, resp.RefreshToken, resp.RefreshTokenExpiresIn, session); err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to save refresh token to database: %w", err)
	}

	resp.User = user.ToResponse(u)
	return resp, nil
}

// RefreshToken exchanges a live refresh token for a new access token.
func (a *AuthServiceImpl) RefreshToken(ctx context.Context, req auth.RefreshTokenRequest) (auth.AccessTokenResponse, error) {
	token, err := jwtauth.VerifyToken(a.tokens.JWTAuth(), req.RefreshToken)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}
	claims, err := token.AsMap(ctx)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}
	if tokenType, _ := claims["type"].(string); tokenType != jwt.TokenTypeRefresh {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}

	userID, revoked, err := a.sessions.IsRefreshTokenRevoked(ctx, req.RefreshToken)
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to check refresh token: %w", err)
	}
	if revoked {
		return auth.AccessTokenResponse{}, auth.ErrRefreshTokenRevoked
	}

	userData, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.AccessTokenResponse{}, auth.ErrInvalidToken
		}
		return auth.AccessTokenResponse{}, err
	}

	var resp auth.AccessTokenResponse
	resp.AccessToken, resp.AccessTokenExpiresIn, err = a.tokens.GenerateAccessToken(userData.ID, userData.Email, userData.Role)
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	return resp, nil
}

// Logout revokes the refresh token. Unknown or already revoked tokens are not an error.
func (a *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	return a.tx(ctx, func(txCtx context.Context) error {
		_, revoked, err := a.sessions.IsRefreshTokenRevoked(txCtx, refreshToken)
		if err != nil {
			return fmt.Errorf("failed to check if refresh token is revoked: %w", err)
		}
		if revoked {
			return nil
		}
		if err := a.sessions.RevokeRefreshToken(txCtx, refreshToken); err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
		return nil
	})
}

func (a *AuthServiceImpl) Me(ctx context.Context, userID string) (user.UserResponse, error) {
	u, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return user.UserResponse{}, err
	}
	return user.ToResponse(u), nil
}

var _ auth.AuthService = (*AuthServiceImpl)(nil)
