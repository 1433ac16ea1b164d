package email

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// ErrNotConfigured is returned when SMTP_HOST is empty and nothing was sent.
var ErrNotConfigured = errors.New("smtp not configured")

// ErrInvalidHeader is returned when an address would break out of its header line.
var ErrInvalidHeader = errors.New("invalid email header value")

// EmailService defines the interface for sending emails
type EmailService interface {
	SendIncidentUploadLink(ctx context.Context, to string, data UploadLinkData) error
	SendIncidentHRAlert(ctx context.Context, to string, data HRAlertData) error
	SendAccessRequest(ctx context.Context, to string, data AccessRequestData) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type emailServiceImpl struct {
	cfg       config.SMTPConfig
	templates *template.Template
	send      sendFunc
	backoff   time.Duration
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg config.SMTPConfig) (EmailService, error) {
	return newEmailService(cfg, smtp.SendMail)
}

func newEmailService(cfg config.SMTPConfig, send sendFunc) (*emailServiceImpl, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &emailServiceImpl{
		cfg:       cfg,
		templates: tmpl,
		send:      send,
		backoff:   time.Second,
	}, nil
}

type UploadLinkData struct {
	Name         string
	AbsenceCount int
	AbsentDates  []string
	UploadLink   string
	ExpiresAt    string
}

// SendIncidentUploadLink mails the tokenized upload link to an employee past the absence threshold.
// It is attempted exactly once; the login path waits on it.
func (s *emailServiceImpl) SendIncidentUploadLink(ctx context.Context, to string, data UploadLinkData) error {
	body, err := s.render("incident_upload_link.html", data)
	if err != nil {
		return err
	}
	return s.sendHTML(ctx, to, "Action required: submit an incident report", body, 1)
}

type HRAlertData struct {
	ReporterName  string
	ReporterEmail string
	Title         string
	Description   string
	Location      string
	Severity      string
	FileName      string
	FileURL       string
	SubmittedAt   string
}

// SendIncidentHRAlert notifies HR that a new incident report was uploaded
func (s *emailServiceImpl) SendIncidentHRAlert(ctx context.Context, to string, data HRAlertData) error {
	body, err := s.render("incident_hr_alert.html", data)
	if err != nil {
		return err
	}
	return s.sendHTML(ctx, to, fmt.Sprintf("New incident report: %s", data.Title), body, maxRetries)
}

type AccessRequestData struct {
	RequesterName  string
	RequesterEmail string
	Kind           string
	Target         string
	Reason         string
	ReviewLink     string
}

// SendAccessRequest tells the approving party a chat access request is waiting
func (s *emailServiceImpl) SendAccessRequest(ctx context.Context, to string, data AccessRequestData) error {
	body, err := s.render("access_request.html", data)
	if err != nil {
		return err
	}
	return s.sendHTML(ctx, to, fmt.Sprintf("Access request from %s", data.RequesterName), body, maxRetries)
}

func (s *emailServiceImpl) render(name string, data any) (string, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return body.String(), nil
}

func (s *emailServiceImpl) sendHTML(ctx context.Context, to, subject, htmlBody string, attempts int) error {
	if s.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return ErrNotConfigured
	}
	if to == "" {
		return fmt.Errorf("email recipient is empty")
	}
	from := s.cfg.From
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(from, "\r\n") {
		return ErrInvalidHeader
	}

	// Display name and subject carry user text; encoded words keep CR/LF out of the header block.
	sender := (&mail.Address{Name: s.cfg.FromName, Address: from}).String()
	headers := fmt.Sprintf("From: %s\r\n", sender)
	headers += fmt.Sprintf("To: %s\r\n", to)
	headers += fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	headers += "\r\n"

	message := []byte(headers + htmlBody)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := s.sendWithContext(ctx, addr, auth, from, to, message)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err,
		)
		if ctx.Err() != nil {
			break
		}

		// Exponential backoff: 1s, 2s, 4s
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("failed to send email: %w", ctx.Err())
			case <-time.After(s.backoff << (attempt - 1)):
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", attempts, lastErr)
}

// sendWithContext bounds a blocking SMTP exchange by ctx.
// net/smtp has no context support, so an abandoned send finishes in the background.
func (s *emailServiceImpl) sendWithContext(ctx context.Context, addr string, auth smtp.Auth, from, to string, msg []byte) error {
	done := make(chan error, 1)
	go func() {
		done <- s.send(addr, auth, from, []string{to}, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
