package attendance

import (
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/validator"
)

type RecordAttendanceRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Status     string `json:"status"`

	parsedDate   time.Time
	parsedStatus Status
}

func (r *RecordAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}

	if date, ok := validator.IsValidDate(r.Date); !ok {
		errs.Add("date", "date must be in YYYY-MM-DD format")
	} else {
		r.parsedDate = date
	}

	if status, ok := ParseStatus(r.Status); !ok {
		errs.Add("status", ErrInvalidStatus.Error())
	} else {
		r.parsedStatus = status
	}

	return errs.OrNil()
}

// ToRecord converts a validated request into a Record
func (r *RecordAttendanceRequest) ToRecord() Record {
	return Record{
		EmployeeID: r.EmployeeID,
		Date:       r.parsedDate,
		Status:     r.parsedStatus,
	}
}

type RecordResponse struct {
	ID         string `json:"id,omitempty"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Status     string `json:"status"`
}

func ToRecordResponse(r Record) RecordResponse {
	return RecordResponse{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		Date:       r.Date.Format("2006-01-02"),
		Status:     string(r.Status),
	}
}

type MonthSummaryResponse struct {
	EmployeeID   string           `json:"employee_id"`
	Month        string           `json:"month"`
	AbsenceCount int              `json:"absence_count"`
	AbsentDates  []string         `json:"absent_dates"`
	Records      []RecordResponse `json:"records"`
}
