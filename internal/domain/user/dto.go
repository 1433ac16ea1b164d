package user

import "time"

// UserResponse represents user data in API responses
type UserResponse struct {
	ID                        string     `json:"id"`
	Email                     string     `json:"email"`
	Name                      string     `json:"name"`
	Role                      string     `json:"role"`
	Department                *string    `json:"department,omitempty"`
	IncidentReportSubmitted   bool       `json:"incident_report_submitted"`
	IncidentReportSubmittedAt *time.Time `json:"incident_report_submitted_at,omitempty"`
}

func ToResponse(u User) UserResponse {
	return UserResponse{
		ID:                        u.ID,
		Email:                     u.Email,
		Name:                      u.Name,
		Role:                      string(u.Role),
		Department:                u.Department,
		IncidentReportSubmitted:   u.IncidentReportSubmitted,
		IncidentReportSubmittedAt: u.IncidentReportSubmittedAt,
	}
}
