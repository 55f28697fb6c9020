package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockService is an in-memory mock implementation of Service for testing.
type MockService struct {
	mu sync.Mutex

	// Spies for method calls
	CreateChannelFunc func(ctx context.Context, matchID string) (string, error)
	PostMessageFunc   func(ctx context.Context, channelID, senderID, messageType, content string) (*Message, error)

	// Call records
	CreateChannelCalls []string
	Messages           map[string][]Message
}

// NewMock creates a new mock chat service.
func NewMock() *MockService {
	return &MockService{
		Messages: make(map[string][]Message),
	}
}

func (m *MockService) CreateChannel(ctx context.Context, matchID string) (string, error) {
	m.mu.Lock()
	m.CreateChannelCalls = append(m.CreateChannelCalls, matchID)
	fn := m.CreateChannelFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, matchID)
	}
	id := "chat-" + matchID
	m.mu.Lock()
	if _, ok := m.Messages[id]; !ok {
		m.Messages[id] = []Message{}
	}
	m.mu.Unlock()
	return id, nil
}

func (m *MockService) PostMessage(ctx context.Context, channelID, senderID, messageType, content string) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PostMessageFunc != nil {
		return m.PostMessageFunc(ctx, channelID, senderID, messageType, content)
	}
	if _, ok := m.Messages[channelID]; !ok {
		return nil, fmt.Errorf("%s: %w", channelID, ErrChannelNotFound)
	}
	msg := Message{
		ID:        uuid.New().String(),
		ChannelID: channelID,
		SenderID:  senderID,
		Type:      messageType,
		Content:   content,
		SentAt:    time.Now().Unix(),
	}
	m.Messages[channelID] = append(m.Messages[channelID], msg)
	return &msg, nil
}

func (m *MockService) ListMessages(ctx context.Context, channelID string) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs, ok := m.Messages[channelID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", channelID, ErrChannelNotFound)
	}
	return append([]Message(nil), msgs...), nil
}

func (m *MockService) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateChannelCalls = nil
	m.Messages = make(map[string][]Message)
}
