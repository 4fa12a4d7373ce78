package chat

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"DormBiz/pkg/logger"
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxMessageLen   = 4000
	defaultPageSize = 50
	maxPageSize     = 200
)

type chatRepo interface {
	// DirectChat returns ErrChatNotFound when the two users have no direct chat yet.
	DirectChat(ctx context.Context, a, b uuid.UUID) (*models.Chat, error)
	CreateChat(ctx context.Context, c *models.Chat, participants []uuid.UUID) error
	ChatByID(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	Participants(ctx context.Context, chatID uuid.UUID) ([]models.ChatParticipant, error)
	IsParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error)
	CreateMessage(ctx context.Context, m *models.Message) error
	Messages(ctx context.Context, chatID uuid.UUID, before time.Time, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, chatID, userID uuid.UUID, at time.Time) error
	UserChats(ctx context.Context, userID uuid.UUID) ([]models.ChatSummary, error)
}

type userRepo interface {
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type publisher interface {
	Publish(userIDs []uuid.UUID, event Envelope)
}

// Envelope is what connected clients receive over the websocket.
type Envelope struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message,omitempty"`
	ChatID  uuid.UUID       `json:"chat_id,omitempty"`
	Error   string          `json:"error,omitempty"`
}

const (
	EnvelopeMessage = "message"
	EnvelopeError   = "error"
)

type ChatService struct {
	log   logger.Log
	chats chatRepo
	users userRepo
	hub   publisher
	now   func() time.Time
}

// NewChatService wires chat use cases. hub may be nil, then messages are only
// stored.
func NewChatService(l logger.Log, c chatRepo, u userRepo, hub publisher) *ChatService {
	return &ChatService{log: l, chats: c, users: u, hub: hub, now: time.Now}
}

// DirectChat returns the direct chat between the two users, creating it on
// first use.
func (s *ChatService) DirectChat(ctx context.Context, userID, peerID uuid.UUID) (*models.Chat, error) {
	if userID == peerID {
		return nil, app_errors.ErrChatWithSelf
	}
	if _, err := s.users.UserByID(ctx, peerID); err != nil {
		return nil, err
	}
	existing, err := s.chats.DirectChat(ctx, userID, peerID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, app_errors.ErrChatNotFound) {
		return nil, err
	}

	c := &models.Chat{Kind: models.ChatKindDirect, CreatedBy: userID}
	if err := s.chats.CreateChat(ctx, c, []uuid.UUID{userID, peerID}); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChatService) GroupChat(ctx context.Context, userID uuid.UUID, title string, members []uuid.UUID) (*models.Chat, error) {
	seen := map[uuid.UUID]bool{userID: true}
	participants := []uuid.UUID{userID}
	for _, m := range members {
		if seen[m] {
			continue
		}
		if _, err := s.users.UserByID(ctx, m); err != nil {
			return nil, err
		}
		seen[m] = true
		participants = append(participants, m)
	}
	c := &models.Chat{Kind: models.ChatKindGroup, Title: strings.TrimSpace(title), CreatedBy: userID}
	if err := s.chats.CreateChat(ctx, c, participants); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChatService) participant(ctx context.Context, chatID, userID uuid.UUID) error {
	if _, err := s.chats.ChatByID(ctx, chatID); err != nil {
		return err
	}
	ok, err := s.chats.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return app_errors.ErrNotParticipant
	}
	return nil
}

// Send stores the message and pushes it to every connected participant.
func (s *ChatService) Send(ctx context.Context, chatID, senderID uuid.UUID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, app_errors.ErrEmptyMessage
	}
	if utf8.RuneCountInString(body) > MaxMessageLen {
		return nil, app_errors.ErrMessageTooLong
	}
	if err := s.participant(ctx, chatID, senderID); err != nil {
		return nil, err
	}

	msg := &models.Message{ChatID: chatID, SenderID: senderID, Body: body}
	if err := s.chats.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	// the sender has obviously read everything up to their own message
	if err := s.chats.MarkRead(ctx, chatID, senderID, msg.CreatedAt); err != nil {
		s.log.ErrorErr("chat: failed to mark read", err, "chat_id", chatID)
	}

	if s.hub != nil {
		participants, err := s.chats.Participants(ctx, chatID)
		if err != nil {
			s.log.ErrorErr("chat: failed to load participants", err, "chat_id", chatID)
			return msg, nil
		}
		ids := make([]uuid.UUID, 0, len(participants))
		for _, p := range participants {
			ids = append(ids, p.UserID)
		}
		s.hub.Publish(ids, Envelope{Type: EnvelopeMessage, Message: msg, ChatID: chatID})
	}
	return msg, nil
}

// Messages returns up to limit messages older than before, newest first. A
// zero before means from the latest message.
func (s *ChatService) Messages(ctx context.Context, chatID, userID uuid.UUID, before time.Time, limit int) ([]models.Message, error) {
	if err := s.participant(ctx, chatID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.chats.Messages(ctx, chatID, before, limit)
}

func (s *ChatService) MarkRead(ctx context.Context, chatID, userID uuid.UUID) error {
	if err := s.participant(ctx, chatID, userID); err != nil {
		return err
	}
	return s.chats.MarkRead(ctx, chatID, userID, s.now())
}

func (s *ChatService) Chats(ctx context.Context, userID uuid.UUID) ([]models.ChatSummary, error) {
	return s.chats.UserChats(ctx, userID)
}

func (s *ChatService) Participants(ctx context.Context, chatID, userID uuid.UUID) ([]models.ChatParticipant, error) {
	if err := s.participant(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return s.chats.Participants(ctx, chatID)
}
