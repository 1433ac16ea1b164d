package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/approval"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/chat"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memChat struct {
	sessions map[string]chat.Session
	messages []chat.Message
	saveErr  error
}

func (m *memChat) GetSession(_ context.Context, userID string) (chat.Session, error) {
	s, ok := m.sessions[userID]
	if !ok {
		return chat.Session{}, chat.ErrSessionNotFound
	}
	return s, nil
}

func (m *memChat) SaveSession(_ context.Context, s chat.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[s.UserID] = s
	return nil
}

func (m *memChat) AppendMessage(_ context.Context, msg chat.Message) (chat.Message, error) {
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *memChat) ListMessages(_ context.Context, _ string, limit int) ([]chat.Message, error) {
	if len(m.messages) > limit {
		return m.messages[len(m.messages)-limit:], nil
	}
	return m.messages, nil
}

type fakeApprovals struct {
	approval.ApprovalService
	submitted []approval.SubmitRequest
	notified  []string
}

func (f *fakeApprovals) Create(_ context.Context, req approval.SubmitRequest) (approval.RequestResponse, error) {
	f.submitted = append(f.submitted, req)
	return approval.RequestResponse{ID: "req-1", Kind: string(req.Kind), State: "awaiting_review"}, nil
}

func (f *fakeApprovals) NotifySubmitted(_ context.Context, id string) {
	f.notified = append(f.notified, id)
}

func (f *fakeApprovals) Decide(context.Context, user.Actor, string, approval.DecisionRequest) (approval.RequestResponse, error) {
	return approval.RequestResponse{}, nil
}

func newService() (*ChatServiceImpl, *memChat, *fakeApprovals) {
	repo := &memChat{sessions: map[string]chat.Session{}}
	approvals := &fakeApprovals{}
	svc := NewChatService(database.NoTx, repo, approvals)
	svc.now = func() time.Time { return time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC) }
	return svc, repo, approvals
}

func TestChatService_FullFlow(t *testing.T) {
	svc, repo, approvals := newService()
	ctx := context.Background()

	resp, err := svc.Start(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "idle", resp.State)

	resp, err = svc.ChooseType(ctx, "u1", chat.ChooseTypeRequest{RequestType: "Access"})
	require.NoError(t, err)
	assert.Equal(t, "request_type_chosen", resp.State)

	resp, err = svc.ChooseTarget(ctx, "u1", chat.ChooseTargetRequest{TargetKind: "department", Target: "logistics"})
	require.NoError(t, err)
	assert.Equal(t, "target_chosen", resp.State)

	resp, err = svc.Submit(ctx, "u1", chat.SubmitChatRequest{Reason: "covering a shift"})
	require.NoError(t, err)
	assert.Equal(t, "submitted", resp.State)
	require.NotNil(t, resp.PendingRequestID)
	assert.Equal(t, "req-1", *resp.PendingRequestID)

	require.Len(t, approvals.submitted, 1)
	assert.Equal(t, approval.KindDepartmentApproval, approvals.submitted[0].Kind)
	assert.Equal(t, "logistics", approvals.submitted[0].Target)
	assert.Equal(t, []string{"req-1"}, approvals.notified)

	msgs, err := svc.Messages(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, msgs, len(repo.messages))
	assert.Equal(t, "system", msgs[len(msgs)-1].Sender)
}

func TestChatService_OutOfOrderSubmitCreatesNothing(t *testing.T) {
	svc, repo, approvals := newService()
	ctx := context.Background()

	_, err := svc.Submit(ctx, "u1", chat.SubmitChatRequest{})
	assert.ErrorIs(t, err, chat.ErrOutOfOrder)
	assert.Empty(t, approvals.submitted)
	assert.Empty(t, approvals.notified)
	assert.Empty(t, repo.sessions)

	_, err = svc.ChooseTarget(ctx, "u1", chat.ChooseTargetRequest{TargetKind: "page", Target: "/hr"})
	assert.ErrorIs(t, err, chat.ErrOutOfOrder)
}

func TestChatService_ValidationAndReset(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, err := svc.ChooseType(ctx, "u1", chat.ChooseTypeRequest{RequestType: "coffee"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, chat.ErrOutOfOrder)

	_, err = svc.ChooseType(ctx, "u1", chat.ChooseTypeRequest{RequestType: "approval"})
	require.NoError(t, err)

	resp, err := svc.Reset(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "idle", resp.State)
	assert.Nil(t, resp.RequestType)
}

func toTargetChosen(t *testing.T, svc *ChatServiceImpl) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.ChooseType(ctx, "u1", chat.ChooseTypeRequest{RequestType: "access"})
	require.NoError(t, err)
	_, err = svc.ChooseTarget(ctx, "u1", chat.ChooseTargetRequest{TargetKind: "page", Target: "/finance"})
	require.NoError(t, err)
}

func TestChatService_SubmitRollbackNotifiesNobody(t *testing.T) {
	svc, repo, approvals := newService()
	toTargetChosen(t, svc)
	repo.saveErr = errors.New("deadlock detected")

	_, err := svc.Submit(context.Background(), "u1", chat.SubmitChatRequest{Reason: "audit"})

	require.Error(t, err)
	assert.Len(t, approvals.submitted, 1)
	assert.Empty(t, approvals.notified)
}

func TestChatService_SubmitCommitFailureNotifiesNobody(t *testing.T) {
	svc, _, approvals := newService()
	toTargetChosen(t, svc)
	commitErr := errors.New("commit failed")
	svc.tx = func(ctx context.Context, fn func(ctx context.Context) error) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return commitErr
	}

	_, err := svc.Submit(context.Background(), "u1", chat.SubmitChatRequest{})

	assert.ErrorIs(t, err, commitErr)
	assert.Len(t, approvals.submitted, 1)
	assert.Empty(t, approvals.notified)
}
