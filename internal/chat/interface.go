package chat

import (
	"context"
	"errors"
)

// ErrChannelNotFound is returned when a channel id does not exist.
var ErrChannelNotFound = errors.New("chat channel not found")

// Service defines the chat operations the booking engine and the HTTP layer
// consume. Every match gets exactly one channel, created at booking time.
type Service interface {
	CreateChannel(ctx context.Context, matchID string) (string, error)
	PostMessage(ctx context.Context, channelID, senderID, messageType, content string) (*Message, error)
	ListMessages(ctx context.Context, channelID string) ([]Message, error)
	Clear()
}
