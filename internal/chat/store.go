package chat

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewStore creates a new chat Service backed by the given database.
func NewStore(db *sql.DB) Service {
	return &store{
		db: db,
	}
}

func (s *store) CreateChannel(ctx context.Context, matchID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_channels (id, match_id, created_at)
		VALUES (?, ?, ?)
	`, id, matchID, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("failed to create chat channel: %w", err)
	}
	log.Debug("Created chat channel", "channelID", id, "matchID", matchID)
	return id, nil
}

func (s *store) PostMessage(ctx context.Context, channelID, senderID, messageType, content string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM chat_channels WHERE id = ?", channelID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check chat channel: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%s: %w", channelID, ErrChannelNotFound)
	}

	if messageType == "" {
		messageType = MessageTypeText
	}
	msg := &Message{
		ID:        uuid.New().String(),
		ChannelID: channelID,
		SenderID:  senderID,
		Type:      messageType,
		Content:   content,
		SentAt:    time.Now().Unix(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, channel_id, sender_id, message_type, content, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.ChannelID, msg.SenderID, msg.Type, msg.Content, msg.SentAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert chat message: %w", err)
	}
	return msg, nil
}

func (s *store) ListMessages(ctx context.Context, channelID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM chat_channels WHERE id = ?", channelID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check chat channel: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%s: %w", channelID, ErrChannelNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, channel_id, sender_id, message_type, content, sent_at
		FROM chat_messages WHERE channel_id = ? ORDER BY sent_at, rowid
	`, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChannelID, &m.SenderID, &m.Type, &m.Content, &m.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message row: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func (s *store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"chat_messages", "chat_channels"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			log.Error("Failed to clear table", "table", table, "error", err)
			return
		}
	}
}
