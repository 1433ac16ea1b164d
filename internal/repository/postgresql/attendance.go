package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/attendance"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// ListRecords implements attendance.Directory over the local attendances table.
// The window bounds are compared as calendar dates in the window's location.
func (a *attendanceRepository) ListRecords(ctx context.Context, employeeID string, window attendance.Window) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, employee_id, date, status, created_at
		FROM attendances
		WHERE employee_id = $1
		  AND date BETWEEN $2::date AND $3::date
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, employeeID,
		window.Start.Format("2006-01-02"),
		window.End.Format("2006-01-02"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		var status string
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Date, &status, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		rec.Status = attendance.Status(status)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Upsert implements attendance.AttendanceRepository.
func (a *attendanceRepository) Upsert(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (employee_id, date, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id, date) DO UPDATE SET status = EXCLUDED.status
		RETURNING id, employee_id, date, status, created_at
	`

	var saved attendance.Record
	var status string
	err := q.QueryRow(ctx, query, record.EmployeeID, record.Date.Format("2006-01-02"), string(record.Status)).Scan(
		&saved.ID, &saved.EmployeeID, &saved.Date, &status, &saved.CreatedAt,
	)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to save attendance: %w", err)
	}
	saved.Status = attendance.Status(status)

	return saved, nil
}
