package incident

import (
	"context"
	"time"
)

type IncidentRepository interface {
	Create(ctx context.Context, report Report) (Report, error)
	GetByID(ctx context.Context, id string) (Report, error)
	List(ctx context.Context, filter IncidentFilter) ([]Report, int64, error)
	Update(ctx context.Context, id string, req UpdateIncidentRequest) (Report, error)
	Delete(ctx context.Context, id string) error

	// FindLatestInWindow returns the newest report authored by userID or
	// filed under email with created_at in [from, to], or nil when there is none.
	FindLatestInWindow(ctx context.Context, userID, email string, from, to time.Time) (*Report, error)
}
