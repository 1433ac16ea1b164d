package incident

import (
	"io"
	"strings"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/validator"
)

type UploadIncidentRequest struct {
	Title       string
	Description string
	Location    string
	Severity    string

	File     io.Reader
	FileName string
	FileSize int64
}

func (r *UploadIncidentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Title) {
		errs.Add("title", "title is required")
	} else if len(r.Title) > 255 {
		errs.Add("title", "title must not exceed 255 characters")
	} else if validator.HasControlChars(r.Title) {
		errs.Add("title", "title must be a single line of text")
	}

	if validator.IsEmpty(r.Description) {
		errs.Add("description", "description is required")
	} else if len(r.Description) > 5000 {
		errs.Add("description", "description must not exceed 5000 characters")
	}

	if len(r.Location) > 255 {
		errs.Add("location", "location must not exceed 255 characters")
	} else if validator.HasControlChars(r.Location) {
		errs.Add("location", "location must be a single line of text")
	}

	if r.Severity != "" {
		if _, ok := ParseSeverity(r.Severity); !ok {
			errs.Add("severity", "severity must be one of low, medium, high, critical")
		}
	}

	return errs.OrNil()
}

// SeverityOrDefault returns the parsed severity, low when unset
func (r *UploadIncidentRequest) SeverityOrDefault() Severity {
	if s, ok := ParseSeverity(r.Severity); ok {
		return s
	}
	return SeverityLow
}

type UpdateIncidentRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	Severity    *string `json:"severity,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (r *UpdateIncidentRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Title == nil && r.Description == nil && r.Location == nil && r.Severity == nil && r.Status == nil {
		return ErrNothingToUpdate
	}
	if r.Title != nil {
		if validator.IsEmpty(*r.Title) || len(*r.Title) > 255 {
			errs.Add("title", "title must be 1 to 255 characters")
		} else if validator.HasControlChars(*r.Title) {
			errs.Add("title", "title must be a single line of text")
		}
	}
	if r.Description != nil && len(*r.Description) > 5000 {
		errs.Add("description", "description must not exceed 5000 characters")
	}
	if r.Location != nil && (len(*r.Location) > 255 || validator.HasControlChars(*r.Location)) {
		errs.Add("location", "location must be a single line of at most 255 characters")
	}
	if r.Severity != nil {
		if s, ok := ParseSeverity(*r.Severity); !ok {
			errs.Add("severity", "severity must be one of low, medium, high, critical")
		} else {
			v := string(s)
			r.Severity = &v
		}
	}
	if r.Status != nil {
		if s, ok := ParseStatus(*r.Status); !ok {
			errs.Add("status", "status must be one of pending_review, open, in_progress, resolved, closed")
		} else {
			v := string(s)
			r.Status = &v
		}
	}

	return errs.OrNil()
}

type IncidentFilter struct {
	ReportedBy *string
	Status     *string
	Severity   *string
	Page       int
	Limit      int
}

func (f *IncidentFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}
	if f.ReportedBy != nil && !validator.IsValidUUID(*f.ReportedBy) {
		errs.Add("reported_by", "reported_by must be a valid UUID")
	}
	if f.Status != nil {
		if _, ok := ParseStatus(*f.Status); !ok {
			errs.Add("status", "invalid status filter")
		}
	}
	if f.Severity != nil {
		if _, ok := ParseSeverity(*f.Severity); !ok {
			errs.Add("severity", "invalid severity filter")
		}
	}

	return errs.OrNil()
}

type IncidentResponse struct {
	ID          string    `json:"id"`
	ReportedBy  string    `json:"reported_by"`
	UserEmail   string    `json:"user_email"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Severity    string    `json:"severity"`
	Status      string    `json:"status"`
	FileURL     string    `json:"file_url"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	FileType    string    `json:"file_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AttachmentPath is the authenticated API path serving a report's file.
func AttachmentPath(id string) string {
	return "/api/v1/incident/" + id + "/file"
}

// AttachmentURL joins AttachmentPath onto the public API origin.
func AttachmentURL(publicURL, id string) string {
	return strings.TrimRight(publicURL, "/") + AttachmentPath(id)
}

func ToResponse(r Report) IncidentResponse {
	fileURL := ""
	if r.FilePath != "" {
		fileURL = AttachmentPath(r.ID)
	}
	return IncidentResponse{
		ID:          r.ID,
		ReportedBy:  r.ReportedBy,
		UserEmail:   r.UserEmail,
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		Severity:    string(r.Severity),
		Status:      string(r.Status),
		FileURL:     fileURL,
		FileName:    r.FileName,
		FileSize:    r.FileSize,
		FileType:    r.FileType,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type ListIncidentResponse struct {
	Reports    []IncidentResponse `json:"reports"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

// Attachment is an open report file. The caller closes Body.
type Attachment struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}
