package incident

import (
	"strings"
	"time"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func ParseSeverity(s string) (Severity, bool) {
	switch v := Severity(strings.ToLower(strings.TrimSpace(s))); v {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return v, true
	}
	return "", false
}

type Status string

const (
	StatusPendingReview Status = "pending_review"
	StatusOpen          Status = "open"
	StatusInProgress    Status = "in_progress"
	StatusResolved      Status = "resolved"
	StatusClosed        Status = "closed"
)

func ParseStatus(s string) (Status, bool) {
	switch v := Status(strings.ToLower(strings.TrimSpace(s))); v {
	case StatusPendingReview, StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return v, true
	}
	return "", false
}

// Report is an employee's uploaded justification for absences.
// Only Status changes after creation, through HR review.
type Report struct {
	ID          string
	ReportedBy  string
	UserEmail   string
	Title       string
	Description string
	Location    string
	Severity    Severity
	Status      Status
	FilePath    string
	FileURL     string
	FileName    string
	FileSize    int64
	FileType    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
