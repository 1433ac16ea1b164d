package approval

import (
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/validator"
)

// SubmitRequest opens a human-reviewed request.
type SubmitRequest struct {
	RequesterID string
	Kind        Kind
	Target      string
	Reason      string
}

func (r *SubmitRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.RequesterID) {
		errs.Add("requester_id", "requester is required")
	}
	if r.Kind != KindPageAccess && r.Kind != KindDepartmentApproval {
		errs.Add("kind", "kind must be page_access or department_approval")
	}
	if validator.IsEmpty(r.Target) {
		errs.Add("target", "target is required")
	} else if len(r.Target) > 255 {
		errs.Add("target", "target must not exceed 255 characters")
	} else if validator.HasControlChars(r.Target) {
		errs.Add("target", "target must be a single line of text")
	}
	if len(r.Reason) > 2000 {
		errs.Add("reason", "reason must not exceed 2000 characters")
	}
	return errs.OrNil()
}

type DecisionRequest struct {
	Approve bool   `json:"-"`
	Note    string `json:"note"`
}

func (r *DecisionRequest) Validate() error {
	var errs validator.ValidationErrors
	if len(r.Note) > 2000 {
		errs.Add("note", "note must not exceed 2000 characters")
	}
	return errs.OrNil()
}

type RequestResponse struct {
	ID             string     `json:"id"`
	Kind           string     `json:"kind"`
	RequesterID    string     `json:"requester_id"`
	ReviewerID     *string    `json:"reviewer_id,omitempty"`
	Target         string     `json:"target"`
	Reason         string     `json:"reason"`
	State          string     `json:"state"`
	DecisionNote   *string    `json:"decision_note,omitempty"`
	GrantExpiresAt *time.Time `json:"grant_expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
}

func ToResponse(r Request) RequestResponse {
	return RequestResponse{
		ID:             r.ID,
		Kind:           string(r.Kind),
		RequesterID:    r.RequesterID,
		ReviewerID:     r.ReviewerID,
		Target:         r.Target,
		Reason:         r.Reason,
		State:          string(r.State),
		DecisionNote:   r.DecisionNote,
		GrantExpiresAt: r.GrantExpiresAt,
		CreatedAt:      r.CreatedAt,
		DecidedAt:      r.DecidedAt,
	}
}

type GrantResponse struct {
	Target    string     `json:"target"`
	Active    bool       `json:"active"`
	RequestID string     `json:"request_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
