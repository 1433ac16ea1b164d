package approval

import (
	"context"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
)

type ApprovalService interface {
	// Submit stores a new request in awaiting_review and notifies approvers.
	Submit(ctx context.Context, req SubmitRequest) (RequestResponse, error)

	// Create stores a new request without telling anyone. Callers running
	// inside a transaction call NotifySubmitted after it commits.
	Create(ctx context.Context, req SubmitRequest) (RequestResponse, error)
	// NotifySubmitted alerts approvers about a stored request. Failures are logged only.
	NotifySubmitted(ctx context.Context, id string)

	Decide(ctx context.Context, actor user.Actor, id string, req DecisionRequest) (RequestResponse, error)
	Status(ctx context.Context, actor user.Actor, id string) (RequestResponse, error)
	ActiveGrant(ctx context.Context, userID, target string) (GrantResponse, error)

	// ExpireStale denies requests still awaiting review past the review window.
	ExpireStale(ctx context.Context) (int, error)
}
