package approval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

func TestRequest_ApproveGrantsPageAccess(t *testing.T) {
	r := NewRequest(KindPageAccess, "u1", "/finance/invoices", "month-end close", now)
	assert.Equal(t, StateCreated, r.State)

	require.NoError(t, r.Submit())
	require.NoError(t, r.Approve("m1", "ok", 24*time.Hour, now))

	assert.Equal(t, StateApproved, r.State)
	require.NotNil(t, r.ReviewerID)
	assert.Equal(t, "m1", *r.ReviewerID)
	require.NotNil(t, r.GrantExpiresAt)
	assert.Equal(t, now.Add(24*time.Hour), *r.GrantExpiresAt)
	assert.True(t, r.GrantActive(now.Add(23*time.Hour)))
	assert.False(t, r.GrantActive(now.Add(24*time.Hour)))
}

func TestRequest_DepartmentApprovalHasNoGrant(t *testing.T) {
	r := NewRequest(KindDepartmentApproval, "u1", "logistics", "", now)
	require.NoError(t, r.Submit())
	require.NoError(t, r.Approve("m1", "", 24*time.Hour, now))

	assert.Nil(t, r.GrantExpiresAt)
	assert.Nil(t, r.DecisionNote)
	assert.False(t, r.GrantActive(now))
}

func TestRequest_Deny(t *testing.T) {
	r := NewRequest(KindPageAccess, "u1", "/hr", "", now)
	require.NoError(t, r.Submit())
	require.NoError(t, r.Deny("", "review window elapsed", now))

	assert.Equal(t, StateDenied, r.State)
	assert.Nil(t, r.ReviewerID)
	require.NotNil(t, r.DecisionNote)
	assert.Equal(t, "review window elapsed", *r.DecisionNote)
	assert.Equal(t, now, *r.DecidedAt)
}

func TestRequest_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		step func(r *Request) error
	}{
		{"approve before submit", func(r *Request) error { return r.Approve("m1", "", 0, now) }},
		{"deny before submit", func(r *Request) error { return r.Deny("m1", "", now) }},
		{"submit twice", func(r *Request) error {
			_ = r.Submit()
			return r.Submit()
		}},
		{"approve after deny", func(r *Request) error {
			_ = r.Submit()
			_ = r.Deny("m1", "", now)
			return r.Approve("m1", "", 0, now)
		}},
		{"deny after approve", func(r *Request) error {
			_ = r.Submit()
			_ = r.Approve("m1", "", 0, now)
			return r.Deny("m1", "", now)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRequest(KindPageAccess, "u1", "/x", "", now)
			assert.ErrorIs(t, tt.step(r), ErrInvalidTransition)
		})
	}
}

func TestRequest_SubmitNeedsRequesterAndTarget(t *testing.T) {
	r := NewRequest(KindIncidentReport, "u1", "", "", now)
	assert.ErrorIs(t, r.Submit(), ErrIncompleteRequest)
	assert.Equal(t, StateCreated, r.State)

	r = NewRequest(KindPageAccess, "", "/hr", "", now)
	assert.ErrorIs(t, r.Submit(), ErrIncompleteRequest)
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind(" Page_Access ")
	assert.True(t, ok)
	assert.Equal(t, KindPageAccess, k)

	_, ok = ParseKind("everything")
	assert.False(t, ok)
}

func TestSubmitRequest_Validate(t *testing.T) {
	ok := SubmitRequest{RequesterID: "u1", Kind: KindPageAccess, Target: "/hr"}
	assert.NoError(t, ok.Validate())

	bad := SubmitRequest{Kind: KindIncidentReport}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind")
}
