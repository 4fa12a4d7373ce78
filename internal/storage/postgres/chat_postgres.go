package postgres

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatPostgres struct {
	db *pgxpool.Pool
}

func NewChatPostgres(db *pgxpool.Pool) *ChatPostgres {
	return &ChatPostgres{db: db}
}

func directKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if y < x {
		x, y = y, x
	}
	return x + ":" + y
}

func (r *ChatPostgres) DirectChat(ctx context.Context, a, b uuid.UUID) (*models.Chat, error) {
	var c models.Chat
	err := r.db.QueryRow(ctx, `
		SELECT id, kind, title, created_by, created_at FROM chats WHERE direct_key = $1
	`, directKey(a, b)).Scan(&c.ID, &c.Kind, &c.Title, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrChatNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateChat stores the chat and its participants. Two users racing to open
// the same direct chat both end up with the one row keyed by direct_key.
func (r *ChatPostgres) CreateChat(ctx context.Context, c *models.Chat, participants []uuid.UUID) error {
	var key *string
	if c.Kind == models.ChatKindDirect && len(participants) == 2 {
		k := directKey(participants[0], participants[1])
		key = &k
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO chats (kind, title, created_by, direct_key)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (direct_key) DO UPDATE SET direct_key = EXCLUDED.direct_key
		RETURNING id, kind, title, created_by, created_at
	`, c.Kind, c.Title, c.CreatedBy, key).Scan(&c.ID, &c.Kind, &c.Title, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if isCode(err, codeForeignKeyViolation) {
			return app_errors.ErrUserNotFound
		}
		return fmt.Errorf("failed to insert chat: %w", err)
	}

	batch := &pgx.Batch{}
	for _, id := range participants {
		batch.Queue(`
			INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, c.ID, id)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		if isCode(err, codeForeignKeyViolation) {
			return app_errors.ErrUserNotFound
		}
		return fmt.Errorf("failed to insert participants: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *ChatPostgres) ChatByID(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	var c models.Chat
	err := r.db.QueryRow(ctx, `SELECT id, kind, title, created_by, created_at FROM chats WHERE id = $1`, id).
		Scan(&c.ID, &c.Kind, &c.Title, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrChatNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ChatPostgres) participants(ctx context.Context, chatIDs []uuid.UUID) (map[uuid.UUID][]models.ChatParticipant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.chat_id, p.user_id, u.username, p.last_read_at, p.joined_at
		FROM chat_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.chat_id = ANY($1)
		ORDER BY p.joined_at
	`, chatIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.ChatParticipant, len(chatIDs))
	for rows.Next() {
		var p models.ChatParticipant
		if err := rows.Scan(&p.ChatID, &p.UserID, &p.Username, &p.LastReadAt, &p.JoinedAt); err != nil {
			return nil, err
		}
		out[p.ChatID] = append(out[p.ChatID], p)
	}
	return out, rows.Err()
}

func (r *ChatPostgres) Participants(ctx context.Context, chatID uuid.UUID) ([]models.ChatParticipant, error) {
	all, err := r.participants(ctx, []uuid.UUID{chatID})
	if err != nil {
		return nil, err
	}
	return all[chatID], nil
}

func (r *ChatPostgres) IsParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM chat_participants WHERE chat_id = $1 AND user_id = $2)
	`, chatID, userID).Scan(&ok)
	return ok, err
}

func (r *ChatPostgres) CreateMessage(ctx context.Context, m *models.Message) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO messages (chat_id, sender_id, body) VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, m.ChatID, m.SenderID, m.Body).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if isCode(err, codeForeignKeyViolation) {
			return app_errors.ErrChatNotFound
		}
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// Messages pages backwards in time. A zero before starts from the newest.
func (r *ChatPostgres) Messages(ctx context.Context, chatID uuid.UUID, before time.Time, limit int) ([]models.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, chat_id, sender_id, body, created_at
		FROM messages
		WHERE chat_id = $1 AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, chatID, nullTime(before), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkRead never moves last_read_at backwards.
func (r *ChatPostgres) MarkRead(ctx context.Context, chatID, userID uuid.UUID, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE chat_participants
		   SET last_read_at = GREATEST(COALESCE(last_read_at, $3), $3)
		 WHERE chat_id = $1 AND user_id = $2
	`, chatID, userID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrNotParticipant
	}
	return nil
}

// UserChats lists the user's chats with the most recently active first.
func (r *ChatPostgres) UserChats(ctx context.Context, userID uuid.UUID) ([]models.ChatSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.kind, c.title, c.created_by, c.created_at,
		       lm.id, lm.sender_id, lm.body, lm.created_at,
		       (SELECT COUNT(*) FROM messages m
		         WHERE m.chat_id = c.id
		           AND m.sender_id <> $1
		           AND (p.last_read_at IS NULL OR m.created_at > p.last_read_at))
		FROM chat_participants p
		JOIN chats c ON c.id = p.chat_id
		LEFT JOIN LATERAL (
			SELECT id, sender_id, body, created_at FROM messages
			WHERE chat_id = c.id
			ORDER BY created_at DESC
			LIMIT 1
		) lm ON TRUE
		WHERE p.user_id = $1
		ORDER BY COALESCE(lm.created_at, c.created_at) DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	summaries := []models.ChatSummary{}
	var ids []uuid.UUID
	for rows.Next() {
		var (
			s        models.ChatSummary
			msgID    *uuid.UUID
			senderID *uuid.UUID
			body     *string
			sentAt   *time.Time
		)
		if err := rows.Scan(&s.Chat.ID, &s.Chat.Kind, &s.Chat.Title, &s.Chat.CreatedBy, &s.Chat.CreatedAt,
			&msgID, &senderID, &body, &sentAt, &s.UnreadCount); err != nil {
			return nil, err
		}
		if msgID != nil {
			s.LastMessage = &models.Message{ID: *msgID, ChatID: s.Chat.ID, SenderID: *senderID, Body: *body, CreatedAt: *sentAt}
		}
		summaries = append(summaries, s)
		ids = append(ids, s.Chat.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return summaries, nil
	}

	participants, err := r.participants(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		summaries[i].Participants = participants[summaries[i].Chat.ID]
	}
	return summaries, nil
}
