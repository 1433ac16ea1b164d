package approval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/approval"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/chat"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/notification"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/database"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/email"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type memApprovals struct {
	mu   sync.Mutex
	rows map[string]approval.Request
	seq  int
}

func newMemApprovals() *memApprovals {
	return &memApprovals{rows: map[string]approval.Request{}}
}

func (m *memApprovals) Create(_ context.Context, req approval.Request) (approval.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	req.ID = fmt.Sprintf("req-%d", m.seq)
	m.rows[req.ID] = req
	return req, nil
}

func (m *memApprovals) GetByID(_ context.Context, id string) (approval.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return approval.Request{}, approval.ErrRequestNotFound
	}
	return r, nil
}

func (m *memApprovals) SaveDecision(_ context.Context, req approval.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows[req.ID].State != approval.StateAwaitingReview {
		return approval.ErrInvalidTransition
	}
	m.rows[req.ID] = req
	return nil
}

func (m *memApprovals) ListAwaitingBefore(_ context.Context, cutoff time.Time) ([]approval.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []approval.Request
	for _, r := range m.rows {
		if r.State == approval.StateAwaitingReview && r.CreatedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memApprovals) FindActiveGrant(_ context.Context, requesterID, target string, now time.Time) (*approval.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.RequesterID == requesterID && r.Target == target && r.GrantActive(now) {
			return &r, nil
		}
	}
	return nil, nil
}

type memChat struct {
	sessions map[string]chat.Session
	messages []chat.Message
}

func newMemChat() *memChat { return &memChat{sessions: map[string]chat.Session{}} }

func (m *memChat) GetSession(_ context.Context, userID string) (chat.Session, error) {
	s, ok := m.sessions[userID]
	if !ok {
		return chat.Session{}, chat.ErrSessionNotFound
	}
	return s, nil
}

func (m *memChat) SaveSession(_ context.Context, s chat.Session) error {
	m.sessions[s.UserID] = s
	return nil
}

func (m *memChat) AppendMessage(_ context.Context, msg chat.Message) (chat.Message, error) {
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *memChat) ListMessages(_ context.Context, userID string, limit int) ([]chat.Message, error) {
	return m.messages, nil
}

type memUsers struct {
	users map[string]user.User
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) Create(_ context.Context, u user.User) (user.User, error) { return u, nil }
func (m *memUsers) LinkGoogleAccount(_ context.Context, _ string, email string) (user.User, error) {
	return m.GetByEmail(context.Background(), email)
}
func (m *memUsers) MarkIncidentReportSubmitted(context.Context, string, time.Time) error {
	return nil
}

func (m *memUsers) ListByRoles(_ context.Context, roles []user.Role) ([]user.User, error) {
	var out []user.User
	for _, u := range m.users {
		for _, r := range roles {
			if u.Role == r {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

type recordingNotifier struct {
	notification.Service
	queued []notification.CreateNotificationRequest
	pushed []string
}

func (n *recordingNotifier) QueueNotification(_ context.Context, req notification.CreateNotificationRequest) error {
	n.queued = append(n.queued, req)
	return nil
}

func (n *recordingNotifier) QueueBulkNotification(_ context.Context, reqs []notification.CreateNotificationRequest) error {
	n.queued = append(n.queued, reqs...)
	return nil
}

func (n *recordingNotifier) Push(userID, event string, _ interface{}) {
	n.pushed = append(n.pushed, userID+":"+event)
}

type recordingMailer struct {
	email.EmailService
	accessRequests []email.AccessRequestData
	err            error
}

func (m *recordingMailer) SendAccessRequest(_ context.Context, _ string, data email.AccessRequestData) error {
	m.accessRequests = append(m.accessRequests, data)
	return m.err
}

// --- helpers ---

var testNow = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *ApprovalServiceImpl
	repo     *memApprovals
	chat     *memChat
	notifier *recordingNotifier
	mailer   *recordingMailer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	users := &memUsers{users: map[string]user.User{
		"emp":  {ID: "emp", Email: "emp@example.com", Name: "Emp", Role: user.RoleEmployee},
		"mgr":  {ID: "mgr", Email: "mgr@example.com", Name: "Mgr", Role: user.RoleManager},
		"boss": {ID: "boss", Email: "boss@example.com", Name: "Boss", Role: user.RoleAdmin},
	}}
	f := fixture{
		repo:     newMemApprovals(),
		chat:     newMemChat(),
		notifier: &recordingNotifier{},
		mailer:   &recordingMailer{},
	}
	f.svc = NewApprovalService(database.NoTx, f.repo, f.chat, users, f.notifier, f.mailer, nil, Config{
		GrantTTL:      24 * time.Hour,
		ReviewTTL:     72 * time.Hour,
		ApproverEmail: "approvals@example.com",
		FrontendURL:   "https://portal.example.com",
	})
	f.svc.now = func() time.Time { return testNow }
	return f
}

func (f fixture) submit(t *testing.T) approval.RequestResponse {
	t.Helper()
	resp, err := f.svc.Submit(context.Background(), approval.SubmitRequest{
		RequesterID: "emp",
		Kind:        approval.KindPageAccess,
		Target:      "/finance/invoices",
		Reason:      "month-end",
	})
	require.NoError(t, err)
	return resp
}

// --- tests ---

func TestApprovalService_SubmitNotifiesApprovers(t *testing.T) {
	f := newFixture(t)

	resp := f.submit(t)

	assert.Equal(t, "awaiting_review", resp.State)
	assert.Len(t, f.notifier.queued, 2)
	for _, q := range f.notifier.queued {
		assert.Equal(t, notification.TypeAccessRequestSubmitted, q.Type)
		assert.NotEqual(t, "emp", q.RecipientID)
	}
	require.Len(t, f.mailer.accessRequests, 1)
	assert.Equal(t, "https://portal.example.com/approvals/"+resp.ID, f.mailer.accessRequests[0].ReviewLink)
}

func TestApprovalService_CreateDefersNotification(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Create(context.Background(), approval.SubmitRequest{
		RequesterID: "emp",
		Kind:        approval.KindDepartmentApproval,
		Target:      "logistics",
	})
	require.NoError(t, err)
	assert.Equal(t, "awaiting_review", resp.State)
	assert.Empty(t, f.notifier.queued)
	assert.Empty(t, f.mailer.accessRequests)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.svc.NotifySubmitted(ctx, resp.ID)

	assert.Len(t, f.notifier.queued, 2)
	require.Len(t, f.mailer.accessRequests, 1)
	assert.Equal(t, "logistics", f.mailer.accessRequests[0].Target)
}

func TestApprovalService_NotifySubmittedUnknownRequest(t *testing.T) {
	f := newFixture(t)

	f.svc.NotifySubmitted(context.Background(), "req-404")

	assert.Empty(t, f.notifier.queued)
	assert.Empty(t, f.mailer.accessRequests)
}

func TestApprovalService_SubmitSurvivesMailFailure(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")

	resp := f.submit(t)
	assert.Equal(t, "awaiting_review", resp.State)
}

func TestApprovalService_ApproveOpensGrantAndResolvesChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := f.submit(t)
	session := chat.NewSession("emp", testNow)
	require.NoError(t, session.ChooseType(chat.RequestTypeAccess, testNow))
	require.NoError(t, session.ChooseTarget(chat.TargetPage, "/finance/invoices", testNow))
	require.NoError(t, session.Submit(resp.ID, testNow))
	require.NoError(t, f.chat.SaveSession(ctx, session))

	decided, err := f.svc.Decide(ctx, user.Actor{UserID: "mgr", Role: user.RoleManager}, resp.ID, approval.DecisionRequest{Approve: true, Note: "go ahead"})
	require.NoError(t, err)

	assert.Equal(t, "approved", decided.State)
	require.NotNil(t, decided.GrantExpiresAt)
	assert.Equal(t, testNow.Add(24*time.Hour), *decided.GrantExpiresAt)
	assert.Equal(t, chat.StateApproved, f.chat.sessions["emp"].State)
	require.Len(t, f.chat.messages, 1)
	assert.Equal(t, chat.SenderSystem, f.chat.messages[0].Sender)
	assert.Contains(t, f.notifier.pushed, "emp:"+notification.EventAccessRequestDecided)

	grant, err := f.svc.ActiveGrant(ctx, "emp", "/finance/invoices")
	require.NoError(t, err)
	assert.True(t, grant.Active)
	assert.Equal(t, resp.ID, grant.RequestID)
}

func TestApprovalService_DecideRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp := f.submit(t)

	_, err := f.svc.Decide(ctx, user.Actor{UserID: "emp", Role: user.RoleEmployee}, resp.ID, approval.DecisionRequest{Approve: true})
	assert.ErrorIs(t, err, user.ErrApproverAccessRequired)

	_, err = f.svc.Decide(ctx, user.Actor{UserID: "mgr", Role: user.RoleManager}, "missing", approval.DecisionRequest{})
	assert.ErrorIs(t, err, approval.ErrRequestNotFound)

	_, err = f.svc.Decide(ctx, user.Actor{UserID: "mgr", Role: user.RoleManager}, resp.ID, approval.DecisionRequest{})
	require.NoError(t, err)

	_, err = f.svc.Decide(ctx, user.Actor{UserID: "boss", Role: user.RoleAdmin}, resp.ID, approval.DecisionRequest{Approve: true})
	assert.ErrorIs(t, err, approval.ErrInvalidTransition)
}

func TestApprovalService_StatusVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp := f.submit(t)

	_, err := f.svc.Status(ctx, user.Actor{UserID: "emp", Role: user.RoleEmployee}, resp.ID)
	assert.NoError(t, err)

	_, err = f.svc.Status(ctx, user.Actor{UserID: "someone", Role: user.RoleEmployee}, resp.ID)
	assert.ErrorIs(t, err, approval.ErrForbidden)
}

func TestApprovalService_ExpireStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := f.submit(t)
	f.svc.now = func() time.Time { return testNow.Add(73 * time.Hour) }

	n, err := f.svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := f.repo.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StateDenied, stored.State)
	require.NotNil(t, stored.DecisionNote)
	assert.Equal(t, "review window elapsed", *stored.DecisionNote)

	n, err = f.svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

type stubValidator struct {
	verdict llm.Verdict
	err     error
	got     llm.ReportInput
}

func (s *stubValidator) ValidateReport(_ context.Context, in llm.ReportInput) (llm.Verdict, error) {
	s.got = in
	return s.verdict, s.err
}

func TestAIReviewer(t *testing.T) {
	v := &stubValidator{verdict: llm.Verdict{Valid: true, Rationale: "doctor's note"}}
	reviewer := NewAIReviewer(v, nil)

	req := approval.NewRequest(approval.KindIncidentReport, "u1", "r1", "", testNow)
	_, err := reviewer.Review(context.Background(), req)
	assert.ErrorIs(t, err, approval.ErrNoEvidence)

	req.Evidence = &approval.Evidence{Description: "Hospitalized", AbsentDates: []string{"2026-04-01"}}
	verdict, err := reviewer.Review(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, verdict.Approved)
	assert.Equal(t, "doctor's note", verdict.Rationale)
	assert.Equal(t, "Hospitalized", v.got.Description)
}
