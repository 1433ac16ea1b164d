package gate

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/approval"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/attendance"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/gate"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/incident"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/email"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/metrics"
)

// ReportFinder is the slice of the incident store the gate reads.
type ReportFinder interface {
	FindLatestInWindow(ctx context.Context, userID, email string, from, to time.Time) (*incident.Report, error)
}

// TokenIssuer mints upload-link tokens.
type TokenIssuer interface {
	GenerateUploadToken(userID string, ttl time.Duration) (token string, expiresAt int64, err error)
}

// LinkMailer sends the upload link.
type LinkMailer interface {
	SendIncidentUploadLink(ctx context.Context, to string, data email.UploadLinkData) error
}

type Config struct {
	Enabled          bool
	AbsenceThreshold int
	UploadLinkTTL    time.Duration
	DirectoryTimeout time.Duration
	EmailTimeout     time.Duration
	ValidatorTimeout time.Duration
	FrontendURL      string
	Location         *time.Location
}

type Service struct {
	directory attendance.Directory
	users     user.UserRepository
	reports   ReportFinder
	tokens    TokenIssuer
	mailer    LinkMailer
	reviewer  approval.Reviewer
	metrics   metrics.Recorder
	cfg       Config
	now       func() time.Time
}

func NewService(
	directory attendance.Directory,
	users user.UserRepository,
	reports ReportFinder,
	tokens TokenIssuer,
	mailer LinkMailer,
	reviewer approval.Reviewer,
	recorder metrics.Recorder,
	cfg Config,
) *Service {
	if cfg.AbsenceThreshold < 1 {
		cfg.AbsenceThreshold = 3
	}
	if cfg.UploadLinkTTL <= 0 {
		cfg.UploadLinkTTL = 24 * time.Hour
	}
	if cfg.DirectoryTimeout <= 0 {
		cfg.DirectoryTimeout = 5 * time.Second
	}
	if cfg.EmailTimeout <= 0 {
		cfg.EmailTimeout = 10 * time.Second
	}
	if cfg.ValidatorTimeout <= 0 {
		cfg.ValidatorTimeout = 15 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		directory: directory,
		users:     users,
		reports:   reports,
		tokens:    tokens,
		mailer:    mailer,
		reviewer:  reviewer,
		metrics:   recorder,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Evaluate implements gate.Gate.
func (s *Service) Evaluate(ctx context.Context, userID string) (decision gate.Decision) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Attendance gate panicked, allowing login",
				"user_id", userID, "panic", r, "stack", string(debug.Stack()))
			decision = gate.Decision{Allowed: true, Outcome: gate.OutcomePanicRecovered}
		}
		s.metrics.RecordGateOutcome(string(decision.Outcome))
	}()

	if !s.cfg.Enabled || userID == "" {
		return gate.Decision{Allowed: true, Outcome: gate.OutcomeSkipped}
	}
	return s.evaluate(ctx, userID)
}

func (s *Service) evaluate(ctx context.Context, userID string) gate.Decision {
	window := attendance.MonthWindow(s.now().In(s.cfg.Location))

	dirCtx, cancel := context.WithTimeout(ctx, s.cfg.DirectoryTimeout)
	records, err := s.directory.ListRecords(dirCtx, userID, window)
	cancel()
	if err != nil {
		slog.Warn("Attendance directory unavailable, allowing login", "user_id", userID, "error", err)
		return gate.Decision{Allowed: true, Outcome: gate.OutcomeDirectoryUnavailable}
	}

	absent := attendance.AbsentDates(records)
	d := gate.Decision{
		AbsenceCount: len(absent),
		AbsentDates:  attendance.FormatDates(absent),
	}
	if d.AbsenceCount < s.cfg.AbsenceThreshold {
		d.Allowed = true
		d.Outcome = gate.OutcomeBelowThreshold
		return d
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		slog.Warn("Attendance gate could not resolve user past threshold", "user_id", userID, "error", err)
		d.Outcome = gate.OutcomeUnknownUser
		d.Message = gate.MessageContactHR
		return d
	}

	report, err := s.reports.FindLatestInWindow(ctx, u.ID, u.Email, window.Start, window.End)
	if err != nil {
		slog.Error("Incident report lookup failed, allowing login", "user_id", userID, "error", err)
		d.Allowed = true
		d.Outcome = gate.OutcomeReportLookupError
		return d
	}
	if report == nil {
		return s.issueLink(ctx, u, d)
	}
	return s.review(ctx, u, report, d)
}

// issueLink denies the login and mails a fresh upload link. The denial stands
// when the mail fails; only the message changes.
func (s *Service) issueLink(ctx context.Context, u user.User, d gate.Decision) gate.Decision {
	d.Allowed = false

	token, expiresAt, err := s.tokens.GenerateUploadToken(u.ID, s.cfg.UploadLinkTTL)
	if err != nil {
		slog.Error("Failed to issue upload token", "user_id", u.ID, "error", err)
		d.Outcome = gate.OutcomeEmailFailed
		d.Message = gate.MessageEmailFailed
		return d
	}
	d.TokenIssued = true

	link := fmt.Sprintf("%s/uploadIncident/%s/%s", s.cfg.FrontendURL, u.ID, token)
	mailCtx, cancel := context.WithTimeout(ctx, s.cfg.EmailTimeout)
	err = s.mailer.SendIncidentUploadLink(mailCtx, u.Email, email.UploadLinkData{
		Name:         u.DisplayName(),
		AbsenceCount: d.AbsenceCount,
		AbsentDates:  d.AbsentDates,
		UploadLink:   link,
		ExpiresAt:    time.Unix(expiresAt, 0).In(s.cfg.Location).Format("02 Jan 2006 15:04 MST"),
	})
	cancel()
	s.metrics.RecordEmail("incident_upload_link", err)
	if err != nil {
		slog.Warn("Failed to email upload link", "user_id", u.ID, "error", err)
		d.Outcome = gate.OutcomeEmailFailed
		d.Message = gate.MessageEmailFailed
		return d
	}

	slog.Info("Login denied pending incident report", "user_id", u.ID, "absences", d.AbsenceCount)
	d.EmailSent = true
	d.Outcome = gate.OutcomeNewLink
	d.Message = gate.MessageEmailSent
	return d
}

// review runs the report through the automated reviewer as an in-memory
// incident_report approval request. Reviewer errors fail open.
func (s *Service) review(ctx context.Context, u user.User, report *incident.Report, d gate.Decision) gate.Decision {
	now := s.now()
	req := approval.NewRequest(approval.KindIncidentReport, u.ID, report.ID, report.Description, now)
	req.Evidence = &approval.Evidence{
		RequesterName:  u.DisplayName(),
		RequesterEmail: u.Email,
		Title:          report.Title,
		Description:    report.Description,
		Location:       report.Location,
		Severity:       string(report.Severity),
		FileName:       report.FileName,
		SubmittedAt:    report.CreatedAt,
		AbsentDates:    d.AbsentDates,
	}
	if err := req.Submit(); err != nil {
		slog.Error("Failed to open incident report review, allowing login", "user_id", u.ID, "report_id", report.ID, "error", err)
		d.Allowed = true
		d.Outcome = gate.OutcomeReviewSetupError
		return d
	}

	reviewCtx, cancel := context.WithTimeout(ctx, s.cfg.ValidatorTimeout)
	verdict, err := s.reviewer.Review(reviewCtx, req)
	cancel()
	if err != nil {
		slog.Warn("Report validator failed, allowing login", "user_id", u.ID, "report_id", report.ID, "error", err)
		d.Allowed = true
		d.Outcome = gate.OutcomeValidatorError
		return d
	}

	d.Rationale = verdict.Rationale
	if verdict.Approved {
		_ = req.Approve(approval.AutomatedReviewerID, verdict.Rationale, 0, now)
		d.Allowed = true
		d.Verdict = "valid"
		d.Outcome = gate.OutcomeValidReport
		return d
	}

	_ = req.Deny(approval.AutomatedReviewerID, verdict.Rationale, now)
	slog.Info("Login denied on insufficient incident report", "user_id", u.ID, "report_id", report.ID)
	d.Verdict = "invalid"
	d.Outcome = gate.OutcomeInvalidReport
	d.Message = gate.MessageInvalidReport
	return d
}
