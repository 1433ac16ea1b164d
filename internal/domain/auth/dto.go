package auth

import (
	"strings"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/validator"
)

type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Department      string `json:"department"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r *RegisterRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.Name = strings.TrimSpace(r.Name)

	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	} else if len(r.Name) > 255 {
		errs.Add("name", "name must not exceed 255 characters")
	} else if validator.HasControlChars(r.Name) {
		errs.Add("name", "name must be a single line of text")
	}
	validateEmail(&errs, r.Email)
	if len(r.Department) > 100 {
		errs.Add("department", "department must not exceed 100 characters")
	} else if validator.HasControlChars(r.Department) {
		errs.Add("department", "department must be a single line of text")
	}
	validatePassword(&errs, r.Password)
	if validator.IsEmpty(r.ConfirmPassword) {
		errs.Add("confirm_password", "confirm_password is required")
	} else if r.ConfirmPassword != r.Password {
		errs.Add("confirm_password", "password and confirm_password do not match")
	}

	return errs.OrNil()
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	validateEmail(&errs, r.Email)
	validatePassword(&errs, r.Password)

	return errs.OrNil()
}

func validateEmail(errs *validator.ValidationErrors, email string) {
	switch {
	case validator.IsEmpty(email):
		errs.Add("email", "email is required")
	case len(email) > 254:
		errs.Add("email", "email must not exceed 254 characters")
	case !validator.IsValidEmail(email):
		errs.Add("email", "email must be a valid email address, e.g. user@example.com")
	}
}

func validatePassword(errs *validator.ValidationErrors, password string) {
	switch {
	case validator.IsEmpty(password):
		errs.Add("password", "password is required")
	case len(password) < 8:
		errs.Add("password", "password must be at least 8 characters long")
	case len(password) > 72:
		errs.Add("password", "password must not exceed 72 characters")
	}
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshTokenRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.RefreshToken) {
		errs.Add("refresh_token", "refresh_token is required")
	}
	return errs.OrNil()
}

// GoogleProfile is the verified identity returned by Google sign-in.
type GoogleProfile struct {
	GoogleID string
	Email    string
	Name     string
}

type SessionTrackingRequest struct {
	UserAgent string
	IPAddress string
}

type TokenResponse struct {
	AccessToken           string            `json:"access_token"`
	AccessTokenExpiresIn  int64             `json:"access_token_expires_in"`
	RefreshToken          string            `json:"refresh_token"`
	RefreshTokenExpiresIn int64             `json:"refresh_token_expires_in"`
	User                  user.UserResponse `json:"user"`
}

type AccessTokenResponse struct {
	AccessToken          string `json:"access_token"`
	AccessTokenExpiresIn int64  `json:"access_token_expires_in"`
}
