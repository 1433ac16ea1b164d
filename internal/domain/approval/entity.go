package approval

import (
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindIncidentReport     Kind = "incident_report"
	KindPageAccess         Kind = "page_access"
	KindDepartmentApproval Kind = "department_approval"
)

func ParseKind(s string) (Kind, bool) {
	switch v := Kind(strings.ToLower(strings.TrimSpace(s))); v {
	case KindIncidentReport, KindPageAccess, KindDepartmentApproval:
		return v, true
	}
	return "", false
}

// GrantsAccess reports whether an approval of this kind opens a time-boxed grant.
func (k Kind) GrantsAccess() bool {
	return k == KindPageAccess
}

type State string

const (
	StateCreated        State = "created"
	StateAwaitingReview State = "awaiting_review"
	StateApproved       State = "approved"
	StateDenied         State = "denied"
)

func (s State) Decided() bool {
	return s == StateApproved || s == StateDenied
}

// Evidence is the material an automated reviewer judges. It is never stored.
type Evidence struct {
	RequesterName  string
	RequesterEmail string
	Title          string
	Description    string
	Location       string
	Severity       string
	FileName       string
	SubmittedAt    time.Time
	AbsentDates    []string
}

// Request is a pending approval shared by the login gate (AI review, in memory)
// and the chat access-request flow (human review, persisted).
//
// Lifecycle: created -> awaiting_review -> approved | denied.
type Request struct {
	ID             string
	Kind           Kind
	RequesterID    string
	ReviewerID     *string
	Target         string
	Reason         string
	State          State
	DecisionNote   *string
	GrantExpiresAt *time.Time
	CreatedAt      time.Time
	DecidedAt      *time.Time

	Evidence *Evidence
}

func NewRequest(kind Kind, requesterID, target, reason string, now time.Time) *Request {
	return &Request{
		Kind:        kind,
		RequesterID: requesterID,
		Target:      target,
		Reason:      reason,
		State:       StateCreated,
		CreatedAt:   now,
	}
}

func (r *Request) Submit() error {
	if r.State != StateCreated {
		return r.transitionError(StateAwaitingReview)
	}
	if r.RequesterID == "" || r.Target == "" {
		return ErrIncompleteRequest
	}
	r.State = StateAwaitingReview
	return nil
}

// Approve closes the request. A positive grantTTL on a granting kind sets
// GrantExpiresAt to now+grantTTL.
func (r *Request) Approve(reviewerID, note string, grantTTL time.Duration, now time.Time) error {
	if r.State != StateAwaitingReview {
		return r.transitionError(StateApproved)
	}
	r.decide(StateApproved, reviewerID, note, now)
	if grantTTL > 0 && r.Kind.GrantsAccess() {
		expires := now.Add(grantTTL)
		r.GrantExpiresAt = &expires
	}
	return nil
}

func (r *Request) Deny(reviewerID, note string, now time.Time) error {
	if r.State != StateAwaitingReview {
		return r.transitionError(StateDenied)
	}
	r.decide(StateDenied, reviewerID, note, now)
	return nil
}

func (r *Request) decide(state State, reviewerID, note string, now time.Time) {
	r.State = state
	if reviewerID != "" {
		r.ReviewerID = &reviewerID
	}
	if note != "" {
		r.DecisionNote = &note
	}
	r.DecidedAt = &now
}

// GrantActive reports whether an approved request still grants access at now.
func (r *Request) GrantActive(now time.Time) bool {
	return r.State == StateApproved && r.GrantExpiresAt != nil && now.Before(*r.GrantExpiresAt)
}

func (r *Request) transitionError(to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.State, to)
}
