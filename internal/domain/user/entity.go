package user

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"    // Portal administrator - full access
	RoleHR       Role = "hr"       // Reviews incident reports and gate outcomes
	RoleManager  Role = "manager"  // Approves access requests for their department
	RoleEmployee Role = "employee" // Regular employee
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleManager, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID                        string
	Email                     string
	Name                      string
	PasswordHash              *string
	Role                      Role
	Department                *string
	EmployeeCode              *string
	OAuthProvider             *string
	OAuthProviderID           *string
	IncidentReportSubmitted   bool
	IncidentReportSubmittedAt *time.Time
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// IsAdmin checks if user is a portal administrator
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanReviewIncidents checks if user may read and update any incident report
func (u *User) CanReviewIncidents() bool {
	return u.Role == RoleAdmin || u.Role == RoleHR
}

// CanApprove checks if user can decide access requests
func (u *User) CanApprove() bool {
	return u.Role == RoleAdmin || u.Role == RoleHR || u.Role == RoleManager
}

// DisplayName falls back to the email when no name is on file.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Actor is the authenticated caller, taken from the request's token and
// passed explicitly into services.
type Actor struct {
	UserID string
	Role   Role
}
