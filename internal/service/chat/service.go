package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/approval"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/chat"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/database"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

type ChatServiceImpl struct {
	tx        database.TxFunc
	repo      chat.ChatRepository
	approvals approval.ApprovalService
	now       func() time.Time
}

func NewChatService(tx database.TxFunc, repo chat.ChatRepository, approvals approval.ApprovalService) *ChatServiceImpl {
	return &ChatServiceImpl{
		tx:        tx,
		repo:      repo,
		approvals: approvals,
		now:       time.Now,
	}
}

func (s *ChatServiceImpl) load(ctx context.Context, userID string) (chat.Session, error) {
	session, err := s.repo.GetSession(ctx, userID)
	if errors.Is(err, chat.ErrSessionNotFound) {
		return chat.NewSession(userID, s.now()), nil
	}
	return session, err
}

// step loads the session, applies fn, logs the user's input and the system's
// next prompt, and stores the result in one transaction.
func (s *ChatServiceImpl) step(ctx context.Context, userID, said string, fn func(ctx context.Context, session *chat.Session) error) (chat.SessionResponse, error) {
	var resp chat.SessionResponse
	err := s.tx(ctx, func(txCtx context.Context) error {
		session, err := s.load(txCtx, userID)
		if err != nil {
			return err
		}
		if err := fn(txCtx, &session); err != nil {
			return err
		}
		if err := s.repo.SaveSession(txCtx, session); err != nil {
			return err
		}

		if said != "" {
			if err := s.say(txCtx, userID, chat.SenderUser, said); err != nil {
				return err
			}
		}
		resp = chat.ToSessionResponse(session)
		return s.say(txCtx, userID, chat.SenderSystem, resp.Prompt)
	})
	if err != nil {
		return chat.SessionResponse{}, err
	}
	return resp, nil
}

func (s *ChatServiceImpl) say(ctx context.Context, userID string, sender chat.Sender, body string) error {
	_, err := s.repo.AppendMessage(ctx, chat.Message{
		UserID:    userID,
		Sender:    sender,
		Body:      body,
		CreatedAt: s.now(),
	})
	return err
}

// Start implements chat.ChatService.
func (s *ChatServiceImpl) Start(ctx context.Context, userID string) (chat.SessionResponse, error) {
	return s.step(ctx, userID, "", func(_ context.Context, session *chat.Session) error {
		return session.Start(s.now())
	})
}

// ChooseType implements chat.ChatService.
func (s *ChatServiceImpl) ChooseType(ctx context.Context, userID string, req chat.ChooseTypeRequest) (chat.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return chat.SessionResponse{}, err
	}
	requestType, _ := chat.ParseRequestType(req.RequestType)

	return s.step(ctx, userID, string(requestType), func(_ context.Context, session *chat.Session) error {
		return session.ChooseType(requestType, s.now())
	})
}

// ChooseTarget implements chat.ChatService.
func (s *ChatServiceImpl) ChooseTarget(ctx context.Context, userID string, req chat.ChooseTargetRequest) (chat.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return chat.SessionResponse{}, err
	}
	kind, _ := chat.ParseTargetKind(req.TargetKind)

	said := fmt.Sprintf("%s: %s", kind, req.Target)
	return s.step(ctx, userID, said, func(_ context.Context, session *chat.Session) error {
		return session.ChooseTarget(kind, req.Target, s.now())
	})
}

// Submit implements chat.ChatService. The pending request is created only
// when the conversation has reached target_chosen, and approvers hear about
// it only once the transaction has committed.
func (s *ChatServiceImpl) Submit(ctx context.Context, userID string, req chat.SubmitChatRequest) (chat.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return chat.SessionResponse{}, err
	}

	said := "Submit"
	if req.Reason != "" {
		said = "Submit: " + req.Reason
	}
	var createdID string
	resp, err := s.step(ctx, userID, said, func(txCtx context.Context, session *chat.Session) error {
		createdID = ""
		if session.State != chat.StateTargetChosen || session.Target == nil || session.TargetKind == nil {
			return session.Submit("", s.now())
		}

		kind := approval.KindPageAccess
		if *session.TargetKind == chat.TargetDepartment {
			kind = approval.KindDepartmentApproval
		}
		created, err := s.approvals.Create(txCtx, approval.SubmitRequest{
			RequesterID: userID,
			Kind:        kind,
			Target:      *session.Target,
			Reason:      req.Reason,
		})
		if err != nil {
			return err
		}
		createdID = created.ID
		return session.Submit(created.ID, s.now())
	})
	if err != nil {
		return chat.SessionResponse{}, err
	}

	if createdID != "" {
		s.approvals.NotifySubmitted(ctx, createdID)
	}
	return resp, nil
}

// Reset implements chat.ChatService.
func (s *ChatServiceImpl) Reset(ctx context.Context, userID string) (chat.SessionResponse, error) {
	return s.step(ctx, userID, "Start over", func(_ context.Context, session *chat.Session) error {
		session.Reset(s.now())
		return nil
	})
}

// Messages implements chat.ChatService.
func (s *ChatServiceImpl) Messages(ctx context.Context, userID string, limit int) ([]chat.MessageResponse, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	messages, err := s.repo.ListMessages(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]chat.MessageResponse, len(messages))
	for i, m := range messages {
		resp[i] = chat.ToMessageResponse(m)
	}
	return resp, nil
}
