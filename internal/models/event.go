package models

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID            uuid.UUID `json:"id"`
	OrganizerID   uuid.UUID `json:"organizer_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	Capacity      int       `json:"capacity"`
	CoverKey      string    `json:"-"`
	CoverURL      string    `json:"cover_url,omitempty"`
	AttendeeCount int       `json:"attendee_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Full reports whether the event has a capacity and reached it. Zero capacity
// means unlimited.
func (e Event) Full() bool {
	return e.Capacity > 0 && e.AttendeeCount >= e.Capacity
}

type EventAttendee struct {
	EventID  uuid.UUID `json:"event_id"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}
