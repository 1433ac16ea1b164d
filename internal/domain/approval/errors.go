package approval

import "errors"

var (
	ErrRequestNotFound   = errors.New("approval request not found")
	ErrInvalidTransition = errors.New("approval request cannot change state")
	ErrSelfReview        = errors.New("requesters cannot decide their own request")
	ErrForbidden         = errors.New("not allowed to view this approval request")
	ErrNoEvidence        = errors.New("approval request has no evidence to review")
	ErrIncompleteRequest = errors.New("approval request needs a requester and a target")
)
