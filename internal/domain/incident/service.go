package incident

import (
	"context"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
)

type IncidentService interface {
	// UploadWithLink stores a report for userID after checking the emailed link token.
	UploadWithLink(ctx context.Context, userID, token string, req UploadIncidentRequest) (IncidentResponse, error)

	// Submit stores a report for an authenticated user.
	Submit(ctx context.Context, userID string, req UploadIncidentRequest) (IncidentResponse, error)

	List(ctx context.Context, actor user.Actor, filter IncidentFilter) (ListIncidentResponse, error)
	Get(ctx context.Context, actor user.Actor, id string) (IncidentResponse, error)
	// OpenAttachment streams a report's file to its owner or to incident.view_all holders.
	OpenAttachment(ctx context.Context, actor user.Actor, id string) (Attachment, error)
	Update(ctx context.Context, id string, req UpdateIncidentRequest) (IncidentResponse, error)
	Delete(ctx context.Context, id string) error
}
