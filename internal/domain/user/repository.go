package user

import (
	"context"
	"time"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, newUser User) (User, error)
	LinkGoogleAccount(ctx context.Context, googleID string, email string) (User, error)
	ListByRoles(ctx context.Context, roles []Role) ([]User, error)
	MarkIncidentReportSubmitted(ctx context.Context, userID string, at time.Time) error
}
