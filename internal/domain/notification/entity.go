package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeAccessRequestSubmitted  NotificationType = "access_request_submitted"
	TypeAccessRequestApproved   NotificationType = "access_request_approved"
	TypeAccessRequestDenied     NotificationType = "access_request_denied"
	TypeIncidentReportSubmitted NotificationType = "incident_report_submitted"
)

// AllNotificationTypes returns all available notification types
func AllNotificationTypes() []NotificationType {
	return []NotificationType{
		TypeAccessRequestSubmitted,
		TypeAccessRequestApproved,
		TypeAccessRequestDenied,
		TypeIncidentReportSubmitted,
	}
}

func (t NotificationType) Valid() bool {
	for _, known := range AllNotificationTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Notification represents a notification entity
type Notification struct {
	ID          string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// NotificationPreference represents user preference for a notification type
type NotificationPreference struct {
	ID               string
	UserID           string
	NotificationType NotificationType
	EmailEnabled     bool
	PushEnabled      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
