// Package llm judges incident reports through an OpenAI-compatible chat completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"
)

const (
	maxBodyBytes     = 1 << 20
	maxRationaleSize = 500
)

var (
	// ErrNoVerdict means the model answered without either marker
	ErrNoVerdict = errors.New("validator reply contained no VALID/INVALID marker")
	ErrNoChoices = errors.New("validator reply had no choices")
)

// ReportInput is what the model sees about a report and the absences it should explain
type ReportInput struct {
	UserName    string
	UserEmail   string
	Title       string
	Description string
	Location    string
	Severity    string
	FileName    string
	SubmittedAt time.Time
	AbsentDates []string
}

// Verdict is the validator's judgement; never cached
type Verdict struct {
	Valid     bool
	Rationale string
}

// Label returns "valid" or "invalid"
func (v Verdict) Label() string {
	if v.Valid {
		return "valid"
	}
	return "invalid"
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewClient(httpClient *http.Client, baseURL, apiKey, model string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const systemPrompt = `You review employee incident reports submitted to explain workplace absences.
Decide whether the report adequately explains the listed absences.
Begin your reply with exactly one word, VALID or INVALID, followed by one short sentence of rationale.`

// ValidateReport asks the model for a verdict on input.
func (c *Client) ValidateReport(ctx context.Context, input ReportInput) (Verdict, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(input)},
		},
		Temperature: 0,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to encode validator request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to create validator request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("validator request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to read validator response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Verdict{}, fmt.Errorf("failed to decode validator response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return Verdict{}, fmt.Errorf("validator returned status %d: %s", resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 {
		return Verdict{}, ErrNoChoices
	}

	return ParseVerdict(parsed.Choices[0].Message.Content)
}

// ParseVerdict reads the marker the model was asked to lead with. Replies that
// bury it in prose fall back to a scan where INVALID wins over VALID, since the
// former contains the latter.
func ParseVerdict(reply string) (Verdict, error) {
	upper := strings.ToUpper(reply)
	rationale := strings.TrimSpace(reply)
	if len(rationale) > maxRationaleSize {
		rationale = rationale[:maxRationaleSize]
	}

	switch leadingWord(upper) {
	case "VALID":
		return Verdict{Valid: true, Rationale: rationale}, nil
	case "INVALID":
		return Verdict{Valid: false, Rationale: rationale}, nil
	}

	switch {
	case strings.Contains(upper, "INVALID"):
		return Verdict{Valid: false, Rationale: rationale}, nil
	case strings.Contains(upper, "VALID"):
		return Verdict{Valid: true, Rationale: rationale}, nil
	}
	return Verdict{}, ErrNoVerdict
}

// leadingWord returns the first run of letters, skipping markdown and punctuation.
func leadingWord(s string) string {
	notLetter := func(r rune) bool { return !unicode.IsLetter(r) }
	s = strings.TrimLeftFunc(s, notLetter)
	if i := strings.IndexFunc(s, notLetter); i >= 0 {
		return s[:i]
	}
	return s
}

// BuildPrompt renders the report, the absence dates and the user context.
func BuildPrompt(in ReportInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Employee: %s <%s>\n", in.UserName, in.UserEmail)
	fmt.Fprintf(&b, "Absences this month (%d): %s\n", len(in.AbsentDates), strings.Join(in.AbsentDates, ", "))
	b.WriteString("\nIncident report\n")
	fmt.Fprintf(&b, "Title: %s\n", in.Title)
	fmt.Fprintf(&b, "Severity: %s\n", in.Severity)
	if in.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", in.Location)
	}
	if !in.SubmittedAt.IsZero() {
		fmt.Fprintf(&b, "Submitted: %s\n", in.SubmittedAt.Format("2006-01-02"))
	}
	if in.FileName != "" {
		fmt.Fprintf(&b, "Attachment: %s\n", in.FileName)
	}
	fmt.Fprintf(&b, "Description: %s\n", in.Description)
	return b.String()
}
