package attendance

import "errors"

var (
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrInvalidStatus      = errors.New("status must be present, absent or leave")
	ErrInvalidMonth       = errors.New("month must be in YYYY-MM format")
	ErrDirectoryResponse  = errors.New("attendance directory returned an unexpected response")
)
