package incident

import "errors"

var (
	ErrIncidentNotFound  = errors.New("incident report not found")
	ErrInvalidUploadLink = errors.New("invalid or expired link")
	ErrFileRequired      = errors.New("file is required")
	ErrForbidden         = errors.New("not allowed to access this incident report")
	ErrNothingToUpdate   = errors.New("no fields to update")
	ErrNoAttachment      = errors.New("incident report has no attachment")
)
