package attendance

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLeave   Status = "leave"
)

// ParseStatus accepts any casing ("Absent", "ABSENT", "absent").
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPresent, StatusAbsent, StatusLeave:
		return st, true
	}
	return "", false
}

// Record is one employee's attendance status for a single day
type Record struct {
	ID         string
	EmployeeID string
	Date       time.Time
	Status     Status
	CreatedAt  time.Time
}

// Window is an inclusive time range
type Window struct {
	Start time.Time
	End   time.Time
}

// MonthWindow returns the calendar month containing now, from its first
// instant to its last instant, in now's location.
func MonthWindow(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{
		Start: start,
		End:   start.AddDate(0, 1, 0).Add(-time.Nanosecond),
	}
}

// ParseMonth parses "2006-01" into that month's window in loc.
func ParseMonth(month string, loc *time.Location) (Window, error) {
	t, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return Window{}, ErrInvalidMonth
	}
	return MonthWindow(t), nil
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// AbsentDates returns the dates of every absent record, in input order.
func AbsentDates(records []Record) []time.Time {
	var dates []time.Time
	for _, r := range records {
		if r.Status == StatusAbsent {
			dates = append(dates, r.Date)
		}
	}
	return dates
}

// FormatDates renders dates as YYYY-MM-DD strings
func FormatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}
