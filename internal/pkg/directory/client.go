// Package directory talks to the external HR attendance service.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/attendance"
)

const maxBodyBytes = 1 << 20

// Client implements attendance.Directory against
// GET {baseURL}/attendance?employeeId&startDate&endDate.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(httpClient *http.Client, baseURL, apiKey string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

type recordPayload struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

// ListRecords fetches one employee's records inside window.
// Anything other than a JSON array (bare or under "data") is an error.
func (c *Client) ListRecords(ctx context.Context, employeeID string, window attendance.Window) ([]attendance.Record, error) {
	reqURL, err := url.Parse(c.baseURL + "/attendance")
	if err != nil {
		return nil, fmt.Errorf("invalid directory url: %w", err)
	}

	q := reqURL.Query()
	q.Set("employeeId", employeeID)
	q.Set("startDate", window.Start.Format(time.RFC3339))
	q.Set("endDate", window.End.Format(time.RFC3339))
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", attendance.ErrDirectoryResponse, resp.StatusCode)
	}

	payload, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}

	records := make([]attendance.Record, 0, len(payload))
	for _, p := range payload {
		status, ok := attendance.ParseStatus(p.Status)
		if !ok {
			slog.Warn("Skipping attendance record with unknown status",
				"employee_id", employeeID, "status", p.Status, "date", p.Date)
			continue
		}
		date, err := parseDate(p.Date, window.Start.Location())
		if err != nil {
			slog.Warn("Skipping attendance record with bad date",
				"employee_id", employeeID, "date", p.Date, "error", err)
			continue
		}
		records = append(records, attendance.Record{
			EmployeeID: employeeID,
			Date:       date,
			Status:     status,
		})
	}

	return records, nil
}

func decodeRecords(body []byte) ([]recordPayload, error) {
	trimmed := strings.TrimSpace(string(body))
	switch {
	case strings.HasPrefix(trimmed, "["):
		var list []recordPayload
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", attendance.ErrDirectoryResponse, err)
		}
		return list, nil
	case strings.HasPrefix(trimmed, "{"):
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", attendance.ErrDirectoryResponse, err)
		}
		if !strings.HasPrefix(strings.TrimSpace(string(envelope.Data)), "[") {
			return nil, fmt.Errorf("%w: data is not an array", attendance.ErrDirectoryResponse)
		}
		return decodeRecords(envelope.Data)
	}
	return nil, fmt.Errorf("%w: body is not an array", attendance.ErrDirectoryResponse)
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return time.ParseInLocation("2006-01-02", s, loc)
}
