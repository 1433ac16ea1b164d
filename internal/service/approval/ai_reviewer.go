package approval

import (
	"context"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/approval"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/llm"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/metrics"
)

// ReportValidator is the language-model call AIReviewer delegates to.
type ReportValidator interface {
	ValidateReport(ctx context.Context, input llm.ReportInput) (llm.Verdict, error)
}

// AIReviewer judges incident_report requests from their Evidence.
type AIReviewer struct {
	validator ReportValidator
	metrics   metrics.Recorder
}

func NewAIReviewer(validator ReportValidator, recorder metrics.Recorder) *AIReviewer {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &AIReviewer{validator: validator, metrics: recorder}
}

func (r *AIReviewer) Review(ctx context.Context, req *approval.Request) (approval.Verdict, error) {
	if req.Evidence == nil {
		return approval.Verdict{}, approval.ErrNoEvidence
	}
	ev := req.Evidence

	start := time.Now()
	verdict, err := r.validator.ValidateReport(ctx, llm.ReportInput{
		UserName:    ev.RequesterName,
		UserEmail:   ev.RequesterEmail,
		Title:       ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Severity:    ev.Severity,
		FileName:    ev.FileName,
		SubmittedAt: ev.SubmittedAt,
		AbsentDates: ev.AbsentDates,
	})
	if err != nil {
		r.metrics.RecordValidatorCall("error", time.Since(start))
		return approval.Verdict{}, err
	}
	r.metrics.RecordValidatorCall(verdict.Label(), time.Since(start))

	return approval.Verdict{Approved: verdict.Valid, Rationale: verdict.Rationale}, nil
}
