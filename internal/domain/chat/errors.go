package chat

import "errors"

var (
	ErrOutOfOrder      = errors.New("chat step is out of order")
	ErrSessionNotFound = errors.New("chat session not found")
)
