package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChatKindDirect = "direct"
	ChatKindGroup  = "group"
)

type Chat struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title,omitempty"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatParticipant struct {
	ChatID     uuid.UUID  `json:"chat_id"`
	UserID     uuid.UUID  `json:"user_id"`
	Username   string     `json:"username"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
	JoinedAt   time.Time  `json:"joined_at"`
}

type Message struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chat_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatSummary struct {
	Chat         Chat              `json:"chat"`
	Participants []ChatParticipant `json:"participants"`
	LastMessage  *Message          `json:"last_message,omitempty"`
	UnreadCount  int               `json:"unread_count"`
}
