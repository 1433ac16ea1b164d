package chat

import "context"

type ChatRepository interface {
	GetSession(ctx context.Context, userID string) (Session, error)
	SaveSession(ctx context.Context, session Session) error

	AppendMessage(ctx context.Context, msg Message) (Message, error)
	// ListMessages returns the newest limit messages, oldest first.
	ListMessages(ctx context.Context, userID string, limit int) ([]Message, error)
}
