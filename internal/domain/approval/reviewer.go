package approval

import "context"

// AutomatedReviewerID stands in for a reviewer user id on automated decisions.
const AutomatedReviewerID = "report-validator"

type Verdict struct {
	Approved  bool
	Rationale string
}

// Reviewer decides a request on behalf of a reviewing party.
type Reviewer interface {
	Review(ctx context.Context, req *Request) (Verdict, error)
}

// ReviewerFunc adapts a function to Reviewer.
type ReviewerFunc func(ctx context.Context, req *Request) (Verdict, error)

func (f ReviewerFunc) Review(ctx context.Context, req *Request) (Verdict, error) {
	return f(ctx, req)
}
