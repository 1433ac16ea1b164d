package response

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/approval"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/attendance"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/auth"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/chat"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/gate"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/incident"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/notification"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/storage"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/validator"
	"github.com/cmlabs-hris/admin-portal-backend/internal/service/file"
)

const CodeAttendanceGateDenied = "ATTENDANCE_GATE_DENIED"

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var denied *gate.DeniedError
	if errors.As(err, &denied) {
		GateDenied(w, denied.Decision)
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrRefreshTokenRevoked):
		Unauthorized(w, "Refresh token revoked")
	case errors.Is(err, auth.ErrRefreshTokenCookieNotFound):
		Unauthorized(w, "Refresh token cookie not found")

	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Incident domain errors
	case errors.Is(err, incident.ErrIncidentNotFound):
		NotFound(w, "Incident report not found")
	case errors.Is(err, incident.ErrNoAttachment):
		NotFound(w, err.Error())
	case errors.Is(err, incident.ErrInvalidUploadLink):
		Unauthorized(w, "Invalid or expired link")
	case errors.Is(err, incident.ErrFileRequired):
		BadRequest(w, "File is required", nil)
	case errors.Is(err, incident.ErrForbidden):
		Forbidden(w, err.Error())
	case errors.Is(err, incident.ErrNothingToUpdate):
		BadRequest(w, "No fields to update", nil)
	case errors.Is(err, file.ErrFileTooLarge):
		Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error(), nil)
	case errors.Is(err, file.ErrInvalidFileType), errors.Is(err, file.ErrEmptyFile):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, storage.ErrFileNotFound):
		NotFound(w, "File not found")

	// Approval and chat domain errors
	case errors.Is(err, approval.ErrRequestNotFound):
		NotFound(w, "Approval request not found")
	case errors.Is(err, approval.ErrInvalidTransition):
		Conflict(w, "Approval request has already been decided")
	case errors.Is(err, approval.ErrSelfReview):
		Forbidden(w, err.Error())
	case errors.Is(err, approval.ErrForbidden):
		Forbidden(w, err.Error())
	case errors.Is(err, chat.ErrOutOfOrder):
		Conflict(w, err.Error())
	case errors.Is(err, chat.ErrSessionNotFound):
		NotFound(w, "Chat session not found")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrInvalidStatus), errors.Is(err, attendance.ErrInvalidMonth):
		BadRequest(w, err.Error(), nil)

	// Notification domain errors
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")
	case errors.Is(err, notification.ErrInvalidNotificationType):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

// GateDenied writes the attendance gate's refusal, keeping its user-facing message.
func GateDenied(w http.ResponseWriter, d gate.Decision) {
	Error(w, http.StatusForbidden, CodeAttendanceGateDenied, d.Message, map[string]string{
		"outcome":       string(d.Outcome),
		"absence_count": strconv.Itoa(d.AbsenceCount),
		"email_sent":    strconv.FormatBool(d.EmailSent),
	})
}
