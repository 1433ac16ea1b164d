package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func april() attendance.Window {
	return attendance.MonthWindow(time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC))
}

func TestListRecords_BareArray(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/attendance", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		gotQuery = map[string]string{
			"employeeId": r.URL.Query().Get("employeeId"),
			"startDate":  r.URL.Query().Get("startDate"),
			"endDate":    r.URL.Query().Get("endDate"),
		}
		w.Write([]byte(`[
			{"date":"2026-04-01","status":"Absent"},
			{"date":"2026-04-02T00:00:00Z","status":"Present"},
			{"date":"2026-04-03","status":"Absent"},
			{"date":"2026-04-04","status":"Sick"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/", "secret")
	records, err := c.ListRecords(context.Background(), "U1", april())

	require.NoError(t, err)
	assert.Equal(t, "U1", gotQuery["employeeId"])
	assert.Equal(t, "2026-04-01T00:00:00Z", gotQuery["startDate"])
	require.Len(t, records, 3)
	assert.Len(t, attendance.AbsentDates(records), 2)
	assert.Equal(t, attendance.StatusPresent, records[1].Status)
}

func TestListRecords_DataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"date":"2026-04-05","status":"absent"}]}`))
	}))
	defer srv.Close()

	records, err := NewClient(srv.Client(), srv.URL, "").ListRecords(context.Background(), "U1", april())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, attendance.StatusAbsent, records[0].Status)
}

func TestListRecords_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `[]`},
		{"object without array", http.StatusOK, `{"data":{"count":3}}`},
		{"plain text", http.StatusOK, `service unavailable`},
		{"malformed json", http.StatusOK, `[{"date":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.Client(), srv.URL, "").ListRecords(context.Background(), "U1", april())
			assert.ErrorIs(t, err, attendance.ErrDirectoryResponse)
		})
	}
}

func TestListRecords_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.Client(), srv.URL, "").ListRecords(ctx, "U1", april())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
