package chat

import (
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/validator"
)

type ChooseTypeRequest struct {
	RequestType string `json:"request_type"`
}

func (r *ChooseTypeRequest) Validate() error {
	var errs validator.ValidationErrors
	if _, ok := ParseRequestType(r.RequestType); !ok {
		errs.Add("request_type", "request_type must be access or approval")
	}
	return errs.OrNil()
}

type ChooseTargetRequest struct {
	TargetKind string `json:"target_kind"`
	Target     string `json:"target"`
}

func (r *ChooseTargetRequest) Validate() error {
	var errs validator.ValidationErrors
	if _, ok := ParseTargetKind(r.TargetKind); !ok {
		errs.Add("target_kind", "target_kind must be page or department")
	}
	if validator.IsEmpty(r.Target) {
		errs.Add("target", "target is required")
	} else if len(r.Target) > 255 {
		errs.Add("target", "target must not exceed 255 characters")
	} else if validator.HasControlChars(r.Target) {
		errs.Add("target", "target must be a single line of text")
	}
	return errs.OrNil()
}

type SubmitChatRequest struct {
	Reason string `json:"reason"`
}

func (r *SubmitChatRequest) Validate() error {
	var errs validator.ValidationErrors
	if len(r.Reason) > 2000 {
		errs.Add("reason", "reason must not exceed 2000 characters")
	}
	return errs.OrNil()
}

type SessionResponse struct {
	State            string    `json:"state"`
	RequestType      *string   `json:"request_type,omitempty"`
	TargetKind       *string   `json:"target_kind,omitempty"`
	Target           *string   `json:"target,omitempty"`
	PendingRequestID *string   `json:"pending_request_id,omitempty"`
	Prompt           string    `json:"prompt"`
	Options          []string  `json:"options,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func ToSessionResponse(s Session) SessionResponse {
	resp := SessionResponse{
		State:            string(s.State),
		Target:           s.Target,
		PendingRequestID: s.PendingRequestID,
		UpdatedAt:        s.UpdatedAt,
	}
	if s.RequestType != nil {
		v := string(*s.RequestType)
		resp.RequestType = &v
	}
	if s.TargetKind != nil {
		v := string(*s.TargetKind)
		resp.TargetKind = &v
	}
	resp.Prompt, resp.Options = NextPrompt(s.State)
	return resp
}

// NextPrompt is the system's question for a session in state.
func NextPrompt(state State) (string, []string) {
	switch state {
	case StateIdle:
		return "What would you like to request?", []string{string(RequestTypeAccess), string(RequestTypeApproval)}
	case StateTypeChosen:
		return "Is this for a page or a department?", []string{string(TargetPage), string(TargetDepartment)}
	case StateTargetChosen:
		return "Add a reason and submit your request.", nil
	case StateSubmitted:
		return "Your request is waiting for review.", nil
	case StateApproved:
		return "Your request was approved.", nil
	case StateDenied:
		return "Your request was denied.", nil
	}
	return "", nil
}

type MessageResponse struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func ToMessageResponse(m Message) MessageResponse {
	return MessageResponse{ID: m.ID, Sender: string(m.Sender), Body: m.Body, CreatedAt: m.CreatedAt}
}
