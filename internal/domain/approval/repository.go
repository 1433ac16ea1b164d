package approval

import (
	"context"
	"time"
)

type ApprovalRepository interface {
	Create(ctx context.Context, req Request) (Request, error)
	GetByID(ctx context.Context, id string) (Request, error)

	// SaveDecision persists a decided request. It fails with
	// ErrInvalidTransition when the stored row already left awaiting_review.
	SaveDecision(ctx context.Context, req Request) error

	ListAwaitingBefore(ctx context.Context, cutoff time.Time) ([]Request, error)

	// FindActiveGrant returns the approved request for requesterID and target
	// whose grant is still open at now, or nil.
	FindActiveGrant(ctx context.Context, requesterID, target string, now time.Time) (*Request, error)
}
