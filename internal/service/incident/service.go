package incident

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/incident"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/notification"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/email"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/metrics"
	"github.com/cmlabs-hris/admin-portal-backend/internal/service/file"
)

const sideEffectTimeout = 30 * time.Second

// UploadTokenValidator checks emailed upload-link tokens.
type UploadTokenValidator interface {
	ValidateUploadToken(token string) (userID string, err error)
}

type HRAlerter interface {
	SendIncidentHRAlert(ctx context.Context, to string, data email.HRAlertData) error
}

// Config holds where HR alerts go and the API origin their attachment links use.
type Config struct {
	HREmail   string
	PublicURL string
}

type IncidentServiceImpl struct {
	repo         incident.IncidentRepository
	userRepo     user.UserRepository
	fileService  file.FileService
	tokens       UploadTokenValidator
	mailer       HRAlerter
	notification notification.Service
	metrics      metrics.Recorder
	cfg          Config
	now          func() time.Time
	async        func(func())
	wg           sync.WaitGroup
}

func NewIncidentService(
	repo incident.IncidentRepository,
	userRepo user.UserRepository,
	fileService file.FileService,
	tokens UploadTokenValidator,
	mailer HRAlerter,
	notificationService notification.Service,
	recorder metrics.Recorder,
	cfg Config,
) *IncidentServiceImpl {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	s := &IncidentServiceImpl{
		repo:         repo,
		userRepo:     userRepo,
		fileService:  fileService,
		tokens:       tokens,
		mailer:       mailer,
		notification: notificationService,
		metrics:      recorder,
		cfg:          cfg,
		now:          time.Now,
	}
	s.async = s.track
	return s
}

// track runs f in the background and counts it for Wait.
func (s *IncidentServiceImpl) track(f func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		f()
	}()
}

// Wait blocks until background HR alerts have finished.
func (s *IncidentServiceImpl) Wait() {
	s.wg.Wait()
}

// UploadWithLink implements incident.IncidentService.
func (s *IncidentServiceImpl) UploadWithLink(ctx context.Context, userID, token string, req incident.UploadIncidentRequest) (incident.IncidentResponse, error) {
	subject, err := s.tokens.ValidateUploadToken(token)
	if err != nil || subject != userID {
		slog.Warn("Rejected incident upload link", "user_id", userID, "error", err)
		return incident.IncidentResponse{}, incident.ErrInvalidUploadLink
	}
	return s.store(ctx, userID, req, "link")
}

// Submit implements incident.IncidentService.
func (s *IncidentServiceImpl) Submit(ctx context.Context, userID string, req incident.UploadIncidentRequest) (incident.IncidentResponse, error) {
	return s.store(ctx, userID, req, "session")
}

func (s *IncidentServiceImpl) store(ctx context.Context, userID string, req incident.UploadIncidentRequest, source string) (incident.IncidentResponse, error) {
	if req.File == nil || req.FileName == "" {
		return incident.IncidentResponse{}, incident.ErrFileRequired
	}

	reporter, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return incident.IncidentResponse{}, err
	}

	if err := req.Validate(); err != nil {
		return incident.IncidentResponse{}, err
	}

	stored, err := s.fileService.UploadIncidentDocument(ctx, reporter.ID, req.File, req.FileName, req.FileSize)
	if err != nil {
		return incident.IncidentResponse{}, err
	}

	created, err := s.repo.Create(ctx, incident.Report{
		ReportedBy:  reporter.ID,
		UserEmail:   reporter.Email,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Severity:    req.SeverityOrDefault(),
		Status:      incident.StatusPendingReview,
		FilePath:    stored.Path,
		FileURL:     stored.URL,
		FileName:    stored.Name,
		FileSize:    stored.Size,
		FileType:    stored.ContentType,
	})
	if err != nil {
		if delErr := s.fileService.DeleteFile(ctx, stored.Path); delErr != nil {
			slog.Warn("Failed to remove orphaned incident file", "path", stored.Path, "error", delErr)
		}
		return incident.IncidentResponse{}, err
	}

	s.metrics.RecordIncidentUpload(source)
	slog.Info("Incident report submitted", "report_id", created.ID, "user_id", reporter.ID, "source", source)

	if err := s.userRepo.MarkIncidentReportSubmitted(ctx, reporter.ID, s.now()); err != nil {
		slog.Warn("Failed to flag incident report on user", "user_id", reporter.ID, "error", err)
	}

	bg := context.WithoutCancel(ctx)
	s.async(func() {
		ctx, cancel := context.WithTimeout(bg, sideEffectTimeout)
		defer cancel()
		s.alertHR(ctx, reporter, created)
	})

	return incident.ToResponse(created), nil
}

// alertHR mails HR and notifies reviewer accounts in-app. Failures are logged only.
func (s *IncidentServiceImpl) alertHR(ctx context.Context, reporter user.User, report incident.Report) {
	if s.cfg.HREmail != "" {
		err := s.mailer.SendIncidentHRAlert(ctx, s.cfg.HREmail, email.HRAlertData{
			ReporterName:  reporter.DisplayName(),
			ReporterEmail: reporter.Email,
			Title:         report.Title,
			Description:   report.Description,
			Location:      report.Location,
			Severity:      string(report.Severity),
			FileName:      report.FileName,
			FileURL:       incident.AttachmentURL(s.cfg.PublicURL, report.ID),
			SubmittedAt:   report.CreatedAt.Format(time.RFC1123),
		})
		s.metrics.RecordEmail("incident_hr_alert", err)
		if err != nil {
			slog.Warn("Failed to email HR about incident report", "report_id", report.ID, "error", err)
		}
	}

	reviewers, err := s.userRepo.ListByRoles(ctx, []user.Role{user.RoleHR, user.RoleAdmin})
	if err != nil {
		slog.Warn("Failed to list incident reviewers", "report_id", report.ID, "error", err)
		return
	}
	reqs := make([]notification.CreateNotificationRequest, 0, len(reviewers))
	for _, r := range reviewers {
		if r.ID == reporter.ID {
			continue
		}
		reqs = append(reqs, notification.CreateNotificationRequest{
			RecipientID: r.ID,
			SenderID:    &reporter.ID,
			Type:        notification.TypeIncidentReportSubmitted,
			Title:       "New incident report",
			Message:     reporter.DisplayName() + " submitted: " + report.Title,
			Data:        map[string]interface{}{"incident_id": report.ID, "severity": string(report.Severity)},
		})
	}
	if len(reqs) == 0 {
		return
	}
	if err := s.notification.QueueBulkNotification(ctx, reqs); err != nil {
		slog.Warn("Failed to queue incident notifications", "report_id", report.ID, "error", err)
	}
}

// List implements incident.IncidentService. Without incident.view_all the
// actor only sees their own reports.
func (s *IncidentServiceImpl) List(ctx context.Context, actor user.Actor, filter incident.IncidentFilter) (incident.ListIncidentResponse, error) {
	if err := filter.Validate(); err != nil {
		return incident.ListIncidentResponse{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionIncidentViewAll) {
		own := actor.UserID
		filter.ReportedBy = &own
	}

	reports, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return incident.ListIncidentResponse{}, err
	}

	resp := incident.ListIncidentResponse{
		Reports:    make([]incident.IncidentResponse, len(reports)),
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}
	for i, r := range reports {
		resp.Reports[i] = incident.ToResponse(r)
	}
	return resp, nil
}

// Get implements incident.IncidentService.
func (s *IncidentServiceImpl) Get(ctx context.Context, actor user.Actor, id string) (incident.IncidentResponse, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return incident.IncidentResponse{}, err
	}
	if report.ReportedBy != actor.UserID && !user.HasPermission(actor.Role, user.PermissionIncidentViewAll) {
		return incident.IncidentResponse{}, incident.ErrForbidden
	}
	return incident.ToResponse(report), nil
}

// OpenAttachment implements incident.IncidentService.
func (s *IncidentServiceImpl) OpenAttachment(ctx context.Context, actor user.Actor, id string) (incident.Attachment, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return incident.Attachment{}, err
	}
	if report.ReportedBy != actor.UserID && !user.HasPermission(actor.Role, user.PermissionIncidentViewAll) {
		return incident.Attachment{}, incident.ErrForbidden
	}
	if report.FilePath == "" {
		return incident.Attachment{}, incident.ErrNoAttachment
	}

	body, err := s.fileService.OpenFile(ctx, report.FilePath)
	if err != nil {
		return incident.Attachment{}, err
	}
	return incident.Attachment{
		Name:        report.FileName,
		ContentType: report.FileType,
		Size:        report.FileSize,
		Body:        body,
	}, nil
}

// Update implements incident.IncidentService.
func (s *IncidentServiceImpl) Update(ctx context.Context, id string, req incident.UpdateIncidentRequest) (incident.IncidentResponse, error) {
	if err := req.Validate(); err != nil {
		return incident.IncidentResponse{}, err
	}
	updated, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return incident.IncidentResponse{}, err
	}
	return incident.ToResponse(updated), nil
}

// Delete implements incident.IncidentService. The attachment goes after the row.
func (s *IncidentServiceImpl) Delete(ctx context.Context, id string) error {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if report.FilePath != "" {
		if err := s.fileService.DeleteFile(ctx, report.FilePath); err != nil {
			slog.Warn("Failed to delete incident attachment", "report_id", id, "path", report.FilePath, "error", err)
		}
	}
	return nil
}
