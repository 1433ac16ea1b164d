package chat

import (
	"fmt"
	"strings"
	"time"
)

type State string

const (
	StateIdle         State = "idle"
	StateTypeChosen   State = "request_type_chosen"
	StateTargetChosen State = "target_chosen"
	StateSubmitted    State = "submitted"
	StateApproved     State = "approved"
	StateDenied       State = "denied"
)

type RequestType string

const (
	RequestTypeAccess   RequestType = "access"
	RequestTypeApproval RequestType = "approval"
)

func ParseRequestType(s string) (RequestType, bool) {
	switch v := RequestType(strings.ToLower(strings.TrimSpace(s))); v {
	case RequestTypeAccess, RequestTypeApproval:
		return v, true
	}
	return "", false
}

type TargetKind string

const (
	TargetPage       TargetKind = "page"
	TargetDepartment TargetKind = "department"
)

func ParseTargetKind(s string) (TargetKind, bool) {
	switch v := TargetKind(strings.ToLower(strings.TrimSpace(s))); v {
	case TargetPage, TargetDepartment:
		return v, true
	}
	return "", false
}

type Sender string

const (
	SenderUser   Sender = "user"
	SenderSystem Sender = "system"
)

// Session is one user's position in the access-request conversation.
type Session struct {
	UserID           string
	State            State
	RequestType      *RequestType
	TargetKind       *TargetKind
	Target           *string
	PendingRequestID *string
	UpdatedAt        time.Time
}

func NewSession(userID string, now time.Time) Session {
	return Session{UserID: userID, State: StateIdle, UpdatedAt: now}
}

// Start opens a fresh conversation. A request still waiting for review blocks it.
func (s *Session) Start(now time.Time) error {
	if s.State == StateSubmitted {
		return s.outOfOrder("start")
	}
	s.clear(now)
	return nil
}

func (s *Session) ChooseType(t RequestType, now time.Time) error {
	if s.State != StateIdle {
		return s.outOfOrder("choose request type")
	}
	s.RequestType = &t
	s.State = StateTypeChosen
	s.UpdatedAt = now
	return nil
}

func (s *Session) ChooseTarget(kind TargetKind, target string, now time.Time) error {
	if s.State != StateTypeChosen {
		return s.outOfOrder("choose target")
	}
	s.TargetKind = &kind
	s.Target = &target
	s.State = StateTargetChosen
	s.UpdatedAt = now
	return nil
}

func (s *Session) Submit(requestID string, now time.Time) error {
	if s.State != StateTargetChosen {
		return s.outOfOrder("submit")
	}
	s.PendingRequestID = &requestID
	s.State = StateSubmitted
	s.UpdatedAt = now
	return nil
}

// Resolve records the decision on the pending request with the given id.
func (s *Session) Resolve(requestID string, approved bool, now time.Time) error {
	if s.State != StateSubmitted || s.PendingRequestID == nil || *s.PendingRequestID != requestID {
		return s.outOfOrder("resolve")
	}
	s.State = StateDenied
	if approved {
		s.State = StateApproved
	}
	s.UpdatedAt = now
	return nil
}

// Reset abandons the conversation. A submitted request stays open for review.
func (s *Session) Reset(now time.Time) {
	s.clear(now)
}

func (s *Session) clear(now time.Time) {
	s.State = StateIdle
	s.RequestType = nil
	s.TargetKind = nil
	s.Target = nil
	s.PendingRequestID = nil
	s.UpdatedAt = now
}

func (s *Session) outOfOrder(step string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrOutOfOrder, step, s.State)
}

type Message struct {
	ID        string
	UserID    string
	Sender    Sender
	Body      string
	CreatedAt time.Time
}
