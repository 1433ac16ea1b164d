// Package gate holds the login-time attendance policy: past a monthly absence
// threshold a user must have an incident report on file that the report
// validator accepts.
package gate

import "context"

type Outcome string

const (
	OutcomeSkipped              Outcome = "skipped"
	OutcomeDirectoryUnavailable Outcome = "directory_unavailable"
	OutcomeBelowThreshold       Outcome = "allow_below_threshold"
	OutcomeUnknownUser          Outcome = "deny_unknown_user"
	OutcomeNewLink              Outcome = "deny_new_link"
	OutcomeEmailFailed          Outcome = "deny_email_failed"
	OutcomeValidReport          Outcome = "allow_valid_report"
	OutcomeInvalidReport        Outcome = "deny_invalid_report"
	OutcomeValidatorError       Outcome = "allow_validator_error"
	OutcomeReportLookupError    Outcome = "allow_report_lookup_error"
	OutcomeReviewSetupError     Outcome = "allow_review_setup_error"
	OutcomePanicRecovered       Outcome = "allow_panic_recovered"
)

const (
	MessageContactHR     = "Your attendance this month requires review. Please contact HR."
	MessageEmailSent     = "You have too many absences this month. We have emailed you a link to upload an incident report; you can sign in once it has been reviewed."
	MessageEmailFailed   = "You have too many absences this month and we could not email you an upload link. Please contact HR directly."
	MessageInvalidReport = "Your incident report does not adequately explain your absences this month. Please contact HR or submit a new report."
)

// Decision is the result of one evaluation. It is never stored.
type Decision struct {
	Allowed      bool     `json:"allowed"`
	Outcome      Outcome  `json:"outcome"`
	Message      string   `json:"message,omitempty"`
	AbsenceCount int      `json:"absence_count"`
	AbsentDates  []string `json:"absent_dates,omitempty"`
	EmailSent    bool     `json:"email_sent"`
	TokenIssued  bool     `json:"token_issued"`
	Verdict      string   `json:"verdict,omitempty"`
	Rationale    string   `json:"rationale,omitempty"`
}

// Err returns nil for an allowed decision and a *DeniedError otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Decision: d}
}

// DeniedError carries a denial out of the login path.
type DeniedError struct {
	Decision Decision
}

func (e *DeniedError) Error() string {
	return e.Decision.Message
}

// Gate decides whether a user may sign in. Evaluate never fails; every error
// path resolves to an allow or deny decision.
type Gate interface {
	Evaluate(ctx context.Context, userID string) Decision
}

// AllowAll is a Gate that lets everyone in.
type AllowAll struct{}

func (AllowAll) Evaluate(context.Context, string) Decision {
	return Decision{Allowed: true, Outcome: OutcomeSkipped}
}
