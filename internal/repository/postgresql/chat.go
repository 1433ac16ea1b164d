package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/chat"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type chatRepositoryImpl struct {
	db *database.DB
}

func NewChatRepository(db *database.DB) chat.ChatRepository {
	return &chatRepositoryImpl{db: db}
}

// GetSession implements chat.ChatRepository.
func (r *chatRepositoryImpl) GetSession(ctx context.Context, userID string) (chat.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT user_id, state, request_type, target_kind, target, pending_request_id, updated_at
		FROM chat_sessions
		WHERE user_id = $1
	`
	var s chat.Session
	var state string
	var requestType, targetKind *string
	err := q.QueryRow(ctx, query, userID).Scan(
		&s.UserID, &state, &requestType, &targetKind, &s.Target, &s.PendingRequestID, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return chat.Session{}, chat.ErrSessionNotFound
		}
		return chat.Session{}, fmt.Errorf("failed to get chat session: %w", err)
	}

	s.State = chat.State(state)
	if requestType != nil {
		t := chat.RequestType(*requestType)
		s.RequestType = &t
	}
	if targetKind != nil {
		k := chat.TargetKind(*targetKind)
		s.TargetKind = &k
	}
	return s, nil
}

// SaveSession implements chat.ChatRepository.
func (r *chatRepositoryImpl) SaveSession(ctx context.Context, s chat.Session) error {
	q := GetQuerier(ctx, r.db)

	var requestType, targetKind *string
	if s.RequestType != nil {
		v := string(*s.RequestType)
		requestType = &v
	}
	if s.TargetKind != nil {
		v := string(*s.TargetKind)
		targetKind = &v
	}

	query := `
		INSERT INTO chat_sessions (user_id, state, request_type, target_kind, target, pending_request_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			state = EXCLUDED.state,
			request_type = EXCLUDED.request_type,
			target_kind = EXCLUDED.target_kind,
			target = EXCLUDED.target,
			pending_request_id = EXCLUDED.pending_request_id,
			updated_at = EXCLUDED.updated_at
	`
	_, err := q.Exec(ctx, query,
		s.UserID, string(s.State), requestType, targetKind, s.Target, s.PendingRequestID, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save chat session: %w", err)
	}
	return nil
}

// AppendMessage implements chat.ChatRepository.
func (r *chatRepositoryImpl) AppendMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	q := GetQuerier(ctx, r.db)

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	query := `INSERT INTO chat_messages (id, user_id, sender, body, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := q.Exec(ctx, query, msg.ID, msg.UserID, string(msg.Sender), msg.Body, msg.CreatedAt); err != nil {
		return chat.Message{}, fmt.Errorf("failed to append chat message: %w", err)
	}
	return msg, nil
}

// ListMessages implements chat.ChatRepository.
func (r *chatRepositoryImpl) ListMessages(ctx context.Context, userID string, limit int) ([]chat.Message, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, user_id, sender, body, created_at FROM (
			SELECT id, user_id, sender, body, created_at
			FROM chat_messages
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`
	rows, err := q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]chat.Message, 0)
	for rows.Next() {
		var m chat.Message
		var sender string
		if err := rows.Scan(&m.ID, &m.UserID, &sender, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		m.Sender = chat.Sender(sender)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
