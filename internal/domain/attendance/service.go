package attendance

import "context"

// AttendanceService covers HR bookkeeping of the local attendance table
type AttendanceService interface {
	// Record inserts or replaces the status for one employee and day
	Record(ctx context.Context, req RecordAttendanceRequest) (RecordResponse, error)

	// MonthSummary reads a month of records from the configured directory
	MonthSummary(ctx context.Context, employeeID string, month string) (MonthSummaryResponse, error)
}
