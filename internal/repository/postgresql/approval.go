package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/approval"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const approvalColumns = `id, kind, requester_id, reviewer_id, target, reason, state,
	decision_note, grant_expires_at, created_at, decided_at`

type approvalRepositoryImpl struct {
	db *database.DB
}

func NewApprovalRepository(db *database.DB) approval.ApprovalRepository {
	return &approvalRepositoryImpl{db: db}
}

func scanApproval(row pgx.Row) (approval.Request, error) {
	var r approval.Request
	var kind, state string
	err := row.Scan(
		&r.ID, &kind, &r.RequesterID, &r.ReviewerID, &r.Target, &r.Reason, &state,
		&r.DecisionNote, &r.GrantExpiresAt, &r.CreatedAt, &r.DecidedAt,
	)
	if err != nil {
		return approval.Request{}, err
	}
	r.Kind = approval.Kind(kind)
	r.State = approval.State(state)
	return r, nil
}

// Create implements approval.ApprovalRepository.
func (r *approvalRepositoryImpl) Create(ctx context.Context, req approval.Request) (approval.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO approval_requests (kind, requester_id, target, reason, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + approvalColumns

	created, err := scanApproval(q.QueryRow(ctx, query,
		string(req.Kind), req.RequesterID, req.Target, req.Reason, string(req.State), req.CreatedAt,
	))
	if err != nil {
		return approval.Request{}, fmt.Errorf("failed to create approval request: %w", err)
	}
	return created, nil
}

// GetByID implements approval.ApprovalRepository.
func (r *approvalRepositoryImpl) GetByID(ctx context.Context, id string) (approval.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE id = $1`
	req, err := scanApproval(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return approval.Request{}, approval.ErrRequestNotFound
		}
		return approval.Request{}, fmt.Errorf("failed to get approval request: %w", err)
	}
	return req, nil
}

// SaveDecision implements approval.ApprovalRepository.
func (r *approvalRepositoryImpl) SaveDecision(ctx context.Context, req approval.Request) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE approval_requests
		SET state = $2, reviewer_id = $3, decision_note = $4, grant_expires_at = $5, decided_at = $6
		WHERE id = $1 AND state = 'awaiting_review'
	`
	tag, err := q.Exec(ctx, query,
		req.ID, string(req.State), req.ReviewerID, req.DecisionNote, req.GrantExpiresAt, req.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save approval decision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return approval.ErrInvalidTransition
	}
	return nil
}

// ListAwaitingBefore implements approval.ApprovalRepository.
func (r *approvalRepositoryImpl) ListAwaitingBefore(ctx context.Context, cutoff time.Time) ([]approval.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + approvalColumns + `
		FROM approval_requests
		WHERE state = 'awaiting_review' AND created_at < $1
		ORDER BY created_at
	`
	rows, err := q.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale approval requests: %w", err)
	}
	defer rows.Close()

	var requests []approval.Request
	for rows.Next() {
		req, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// FindActiveGrant implements approval.ApprovalRepository.
func (r *approvalRepositoryImpl) FindActiveGrant(ctx context.Context, requesterID, target string, now time.Time) (*approval.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + approvalColumns + `
		FROM approval_requests
		WHERE requester_id = $1 AND target = $2 AND state = 'approved' AND grant_expires_at > $3
		ORDER BY grant_expires_at DESC
		LIMIT 1
	`
	req, err := scanApproval(q.QueryRow(ctx, query, requesterID, target, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find access grant: %w", err)
	}
	return &req, nil
}
