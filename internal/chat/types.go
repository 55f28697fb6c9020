package chat

import (
	"database/sql"
	"sync"
)

// store handles all database operations for chat channels and messages.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// MessageTypeText is the default message type; MessageTypeSystem marks
// engine-generated roster announcements.
const (
	MessageTypeText   = "text"
	MessageTypeSystem = "system"
)

// Message is a single chat message within a match channel.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	SenderID  string `json:"sender_id"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	SentAt    int64  `json:"sent_at"`
}
