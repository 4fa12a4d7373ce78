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

type EventPostgres struct {
	db *pgxpool.Pool
}

func NewEventPostgres(db *pgxpool.Pool) *EventPostgres {
	return &EventPostgres{db: db}
}

const eventSelect = `
	SELECT e.id, e.organizer_id, e.title, e.description, e.location, e.starts_at, e.ends_at,
	       e.capacity, e.cover_key, e.created_at, e.updated_at,
	       (SELECT COUNT(*) FROM event_attendees a WHERE a.event_id = e.id)
	FROM events e
`

// nullTime stores the zero time as NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var (
		e      models.Event
		endsAt *time.Time
	)
	err := row.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &endsAt,
		&e.Capacity, &e.CoverKey, &e.CreatedAt, &e.UpdatedAt, &e.AttendeeCount)
	if err != nil {
		return nil, err
	}
	if endsAt != nil {
		e.EndsAt = *endsAt
	}
	return &e, nil
}

func (r *EventPostgres) NewEvent(ctx context.Context, e *models.Event) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO events (organizer_id, title, description, location, starts_at, ends_at, capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, e.OrganizerID, e.Title, e.Description, e.Location, e.StartsAt, nullTime(e.EndsAt), e.Capacity).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isCode(err, codeForeignKeyViolation) {
			return app_errors.ErrUserNotFound
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (r *EventPostgres) EventByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, eventSelect+` WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrEventNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *EventPostgres) UpdateEvent(ctx context.Context, e *models.Event) error {
	err := r.db.QueryRow(ctx, `
		UPDATE events
		   SET title = $2, description = $3, location = $4, starts_at = $5, ends_at = $6,
		       capacity = $7, updated_at = NOW()
		 WHERE id = $1
		RETURNING updated_at
	`, e.ID, e.Title, e.Description, e.Location, e.StartsAt, nullTime(e.EndsAt), e.Capacity).Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return app_errors.ErrEventNotFound
		}
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

func (r *EventPostgres) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrEventNotFound
	}
	return nil
}

func (r *EventPostgres) SetEventCover(ctx context.Context, id uuid.UUID, objectKey string) error {
	tag, err := r.db.Exec(ctx, `UPDATE events SET cover_key = $2, updated_at = NOW() WHERE id = $1`, id, objectKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrEventNotFound
	}
	return nil
}

func (r *EventPostgres) UpcomingEvents(ctx context.Context, after time.Time, limit, offset int) ([]models.Event, error) {
	rows, err := r.db.Query(ctx, eventSelect+`
		WHERE e.starts_at >= $1
		ORDER BY e.starts_at
		LIMIT $2 OFFSET $3
	`, after, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// AddAttendee locks the event row so the capacity check and the insert see
// the same attendee count.
func (r *EventPostgres) AddAttendee(ctx context.Context, eventID, userID uuid.UUID, capacity int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var id uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return app_errors.ErrEventNotFound
		}
		return err
	}

	if capacity > 0 {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM event_attendees WHERE event_id = $1`, eventID).Scan(&count); err != nil {
			return err
		}
		if count >= capacity {
			return app_errors.ErrEventFull
		}
	}

	if _, err := tx.Exec(ctx, `INSERT INTO event_attendees (event_id, user_id) VALUES ($1, $2)`, eventID, userID); err != nil {
		switch {
		case isCode(err, codeUniqueViolation):
			return app_errors.ErrAlreadyAttending
		case isCode(err, codeForeignKeyViolation):
			return app_errors.ErrUserNotFound
		}
		return fmt.Errorf("failed to add attendee: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *EventPostgres) RemoveAttendee(ctx context.Context, eventID, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrNotAttending
	}
	return nil
}

func (r *EventPostgres) Attendees(ctx context.Context, eventID uuid.UUID) ([]models.EventAttendee, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.event_id, a.user_id, u.username, a.joined_at
		FROM event_attendees a
		JOIN users u ON u.id = a.user_id
		WHERE a.event_id = $1
		ORDER BY a.joined_at
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendees: %w", err)
	}
	defer rows.Close()

	attendees := []models.EventAttendee{}
	for rows.Next() {
		var a models.EventAttendee
		if err := rows.Scan(&a.EventID, &a.UserID, &a.Username, &a.JoinedAt); err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}
