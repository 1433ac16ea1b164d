package chat

import "context"

type ChatService interface {
	Start(ctx context.Context, userID string) (SessionResponse, error)
	ChooseType(ctx context.Context, userID string, req ChooseTypeRequest) (SessionResponse, error)
	ChooseTarget(ctx context.Context, userID string, req ChooseTargetRequest) (SessionResponse, error)
	Submit(ctx context.Context, userID string, req SubmitChatRequest) (SessionResponse, error)
	Reset(ctx context.Context, userID string) (SessionResponse, error)
	Messages(ctx context.Context, userID string, limit int) ([]MessageResponse, error)
}
