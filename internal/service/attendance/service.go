package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/attendance"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
)

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	directory      attendance.Directory
	userRepo       user.UserRepository
	location       *time.Location
	now            func() time.Time
}

// NewAttendanceService wires the local table for writes and the configured
// directory for reads; both may be the same repository.
func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	directory attendance.Directory,
	userRepo user.UserRepository,
	location *time.Location,
) attendance.AttendanceService {
	if location == nil {
		location = time.Local
	}
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		directory:      directory,
		userRepo:       userRepo,
		location:       location,
		now:            time.Now,
	}
}

// Record implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Record(ctx context.Context, req attendance.RecordAttendanceRequest) (attendance.RecordResponse, error) {
	if _, err := s.userRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return attendance.RecordResponse{}, err
	}

	saved, err := s.attendanceRepo.Upsert(ctx, req.ToRecord())
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	return attendance.ToRecordResponse(saved), nil
}

// MonthSummary implements attendance.AttendanceService. An empty month means the current one.
func (s *AttendanceServiceImpl) MonthSummary(ctx context.Context, employeeID string, month string) (attendance.MonthSummaryResponse, error) {
	var window attendance.Window
	if month == "" {
		window = attendance.MonthWindow(s.now().In(s.location))
	} else {
		w, err := attendance.ParseMonth(month, s.location)
		if err != nil {
			return attendance.MonthSummaryResponse{}, err
		}
		window = w
	}

	records, err := s.directory.ListRecords(ctx, employeeID, window)
	if err != nil {
		return attendance.MonthSummaryResponse{}, fmt.Errorf("failed to read attendance: %w", err)
	}

	absent := attendance.AbsentDates(records)
	resp := attendance.MonthSummaryResponse{
		EmployeeID:   employeeID,
		Month:        window.Start.Format("2006-01"),
		AbsenceCount: len(absent),
		AbsentDates:  attendance.FormatDates(absent),
		Records:      make([]attendance.RecordResponse, len(records)),
	}
	for i, r := range records {
		resp.Records[i] = attendance.ToRecordResponse(r)
	}
	return resp, nil
}
