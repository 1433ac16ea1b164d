package attendance

import "context"

// Directory is the read-only source of attendance records consulted at login.
type Directory interface {
	ListRecords(ctx context.Context, employeeID string, window Window) ([]Record, error)
}

// AttendanceRepository is the local attendances table. It doubles as a Directory.
type AttendanceRepository interface {
	Directory
	Upsert(ctx context.Context, record Record) (Record, error)
}
