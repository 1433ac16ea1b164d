package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/approval"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/chat"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/notification"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/database"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/email"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/metrics"
)

const (
	staleNote     = "review window elapsed"
	notifyTimeout = 15 * time.Second
)

type Config struct {
	GrantTTL      time.Duration
	ReviewTTL     time.Duration
	ApproverEmail string
	FrontendURL   string
}

type ApprovalServiceImpl struct {
	tx           database.TxFunc
	repo         approval.ApprovalRepository
	chatRepo     chat.ChatRepository
	userRepo     user.UserRepository
	notification notification.Service
	mailer       email.EmailService
	metrics      metrics.Recorder
	cfg          Config
	now          func() time.Time
}

func NewApprovalService(
	tx database.TxFunc,
	repo approval.ApprovalRepository,
	chatRepo chat.ChatRepository,
	userRepo user.UserRepository,
	notificationService notification.Service,
	mailer email.EmailService,
	recorder metrics.Recorder,
	cfg Config,
) *ApprovalServiceImpl {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &ApprovalServiceImpl{
		tx:           tx,
		repo:         repo,
		chatRepo:     chatRepo,
		userRepo:     userRepo,
		notification: notificationService,
		mailer:       mailer,
		metrics:      recorder,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Submit implements approval.ApprovalService.
func (s *ApprovalServiceImpl) Submit(ctx context.Context, req approval.SubmitRequest) (approval.RequestResponse, error) {
	created, err := s.Create(ctx, req)
	if err != nil {
		return approval.RequestResponse{}, err
	}
	s.NotifySubmitted(ctx, created.ID)
	return created, nil
}

// Create implements approval.ApprovalService.
func (s *ApprovalServiceImpl) Create(ctx context.Context, req approval.SubmitRequest) (approval.RequestResponse, error) {
	if err := req.Validate(); err != nil {
		return approval.RequestResponse{}, err
	}

	if _, err := s.userRepo.GetByID(ctx, req.RequesterID); err != nil {
		return approval.RequestResponse{}, err
	}

	pending := approval.NewRequest(req.Kind, req.RequesterID, req.Target, req.Reason, s.now())
	if err := pending.Submit(); err != nil {
		return approval.RequestResponse{}, err
	}

	created, err := s.repo.Create(ctx, *pending)
	if err != nil {
		return approval.RequestResponse{}, err
	}
	return approval.ToResponse(created), nil
}

// NotifySubmitted implements approval.ApprovalService. It outlives a cancelled
// request context but not notifyTimeout.
func (s *ApprovalServiceImpl) NotifySubmitted(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		slog.Warn("Failed to load approval request for notification", "request_id", id, "error", err)
		return
	}
	requester, err := s.userRepo.GetByID(ctx, req.RequesterID)
	if err != nil {
		slog.Warn("Failed to load requester for notification", "request_id", id, "error", err)
		return
	}
	s.notifyApprovers(ctx, requester, req)
}

// notifyApprovers is best-effort; the request is already stored.
func (s *ApprovalServiceImpl) notifyApprovers(ctx context.Context, requester user.User, req approval.Request) {
	approvers, err := s.userRepo.ListByRoles(ctx, []user.Role{user.RoleAdmin, user.RoleManager})
	if err != nil {
		slog.Warn("Failed to list approvers", "request_id", req.ID, "error", err)
	}

	data := map[string]interface{}{
		"request_id": req.ID,
		"kind":       string(req.Kind),
		"target":     req.Target,
	}
	reqs := make([]notification.CreateNotificationRequest, 0, len(approvers))
	for _, a := range approvers {
		if a.ID == requester.ID {
			continue
		}
		reqs = append(reqs, notification.CreateNotificationRequest{
			RecipientID: a.ID,
			SenderID:    &requester.ID,
			Type:        notification.TypeAccessRequestSubmitted,
			Title:       "New access request",
			Message:     fmt.Sprintf("%s requested %s for %s", requester.DisplayName(), req.Kind, req.Target),
			Data:        data,
		})
	}
	if len(reqs) > 0 {
		if err := s.notification.QueueBulkNotification(ctx, reqs); err != nil {
			slog.Warn("Failed to queue approver notifications", "request_id", req.ID, "error", err)
		}
	}

	if s.cfg.ApproverEmail == "" {
		return
	}
	err = s.mailer.SendAccessRequest(ctx, s.cfg.ApproverEmail, email.AccessRequestData{
		RequesterName:  requester.DisplayName(),
		RequesterEmail: requester.Email,
		Kind:           string(req.Kind),
		Target:         req.Target,
		Reason:         req.Reason,
		ReviewLink:     fmt.Sprintf("%s/approvals/%s", s.cfg.FrontendURL, req.ID),
	})
	s.metrics.RecordEmail("access_request", err)
	if err != nil {
		slog.Warn("Failed to email approver", "request_id", req.ID, "error", err)
	}
}

// Decide implements approval.ApprovalService.
func (s *ApprovalServiceImpl) Decide(ctx context.Context, actor user.Actor, id string, req approval.DecisionRequest) (approval.RequestResponse, error) {
	if !user.HasPermission(actor.Role, user.PermissionAccessApprove) {
		return approval.RequestResponse{}, user.ErrApproverAccessRequired
	}
	if err := req.Validate(); err != nil {
		return approval.RequestResponse{}, err
	}

	pending, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return approval.RequestResponse{}, err
	}
	if pending.RequesterID == actor.UserID {
		return approval.RequestResponse{}, approval.ErrSelfReview
	}

	now := s.now()
	if req.Approve {
		err = pending.Approve(actor.UserID, req.Note, s.cfg.GrantTTL, now)
	} else {
		err = pending.Deny(actor.UserID, req.Note, now)
	}
	if err != nil {
		return approval.RequestResponse{}, err
	}

	if err := s.record(ctx, pending); err != nil {
		return approval.RequestResponse{}, err
	}
	return approval.ToResponse(pending), nil
}

// record persists a decision, closes the requester's chat and tells them about it.
func (s *ApprovalServiceImpl) record(ctx context.Context, req approval.Request) error {
	approved := req.State == approval.StateApproved

	err := s.tx(ctx, func(txCtx context.Context) error {
		if err := s.repo.SaveDecision(txCtx, req); err != nil {
			return err
		}
		return s.resolveChat(txCtx, req, approved)
	})
	if err != nil {
		return err
	}

	s.metrics.RecordApprovalDecision(string(req.Kind), string(req.State))
	slog.Info("Approval request decided", "request_id", req.ID, "kind", req.Kind, "state", req.State)

	resp := approval.ToResponse(req)
	s.notification.Push(req.RequesterID, notification.EventAccessRequestDecided, resp)

	notifType := notification.TypeAccessRequestDenied
	title := "Access request denied"
	if approved {
		notifType = notification.TypeAccessRequestApproved
		title = "Access request approved"
	}
	qerr := s.notification.QueueNotification(ctx, notification.CreateNotificationRequest{
		RecipientID: req.RequesterID,
		SenderID:    req.ReviewerID,
		Type:        notifType,
		Title:       title,
		Message:     decisionMessage(req),
		Data:        map[string]interface{}{"request_id": req.ID, "target": req.Target},
	})
	if qerr != nil {
		slog.Warn("Failed to queue decision notification", "request_id", req.ID, "error", qerr)
	}
	return nil
}

func (s *ApprovalServiceImpl) resolveChat(ctx context.Context, req approval.Request, approved bool) error {
	session, err := s.chatRepo.GetSession(ctx, req.RequesterID)
	if err != nil && !errors.Is(err, chat.ErrSessionNotFound) {
		return err
	}
	if err == nil {
		// The requester may have reset the chat since submitting; the log entry still lands.
		if rerr := session.Resolve(req.ID, approved, s.now()); rerr == nil {
			if err := s.chatRepo.SaveSession(ctx, session); err != nil {
				return err
			}
		}
	}

	_, err = s.chatRepo.AppendMessage(ctx, chat.Message{
		UserID:    req.RequesterID,
		Sender:    chat.SenderSystem,
		Body:      decisionMessage(req),
		CreatedAt: s.now(),
	})
	return err
}

func decisionMessage(req approval.Request) string {
	msg := fmt.Sprintf("Your request for %s was %s.", req.Target, req.State)
	if req.GrantExpiresAt != nil {
		msg += fmt.Sprintf(" Access is valid until %s.", req.GrantExpiresAt.Format(time.RFC1123))
	}
	if req.DecisionNote != nil {
		msg += " Note: " + *req.DecisionNote
	}
	return msg
}

// Status implements approval.ApprovalService.
func (s *ApprovalServiceImpl) Status(ctx context.Context, actor user.Actor, id string) (approval.RequestResponse, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return approval.RequestResponse{}, err
	}
	if req.RequesterID != actor.UserID && !user.HasPermission(actor.Role, user.PermissionAccessApprove) {
		return approval.RequestResponse{}, approval.ErrForbidden
	}
	return approval.ToResponse(req), nil
}

// ActiveGrant implements approval.ApprovalService.
func (s *ApprovalServiceImpl) ActiveGrant(ctx context.Context, userID, target string) (approval.GrantResponse, error) {
	resp := approval.GrantResponse{Target: target}

	grant, err := s.repo.FindActiveGrant(ctx, userID, target, s.now())
	if err != nil {
		return approval.GrantResponse{}, err
	}
	if grant != nil {
		resp.Active = true
		resp.RequestID = grant.ID
		resp.ExpiresAt = grant.GrantExpiresAt
	}
	return resp, nil
}

// ExpireStale implements approval.ApprovalService.
func (s *ApprovalServiceImpl) ExpireStale(ctx context.Context) (int, error) {
	now := s.now()
	stale, err := s.repo.ListAwaitingBefore(ctx, now.Add(-s.cfg.ReviewTTL))
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		req := stale[i]
		if err := req.Deny("", staleNote, now); err != nil {
			continue
		}
		if err := s.record(ctx, req); err != nil {
			if errors.Is(err, approval.ErrInvalidTransition) {
				// decided by a reviewer in the meantime
				continue
			}
			slog.Error("Failed to expire approval request", "request_id", req.ID, "error", err)
			continue
		}
		expired++
	}
	return expired, nil
}
