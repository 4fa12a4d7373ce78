package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ServiceActive   = "active"
	ServiceArchived = "archived"

	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingDeclined  = "declined"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
)

// WeeklyAvailability maps a weekday name ("monday") to [start, end] pairs in
// "HH:MM" form.
type WeeklyAvailability map[string][][2]string

type Service struct {
	ID           uuid.UUID          `json:"id"`
	ProviderID   uuid.UUID          `json:"provider_id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Category     string             `json:"category"`
	Location     string             `json:"location"`
	Availability WeeklyAvailability `json:"availability"`
	Status       string             `json:"status"`
	ImageKey     string             `json:"-"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

type ServiceFilter struct {
	Query      string
	Category   string
	ProviderID uuid.UUID
	Limit      int
	Offset     int
}

type ServiceOffer struct {
	ID              uuid.UUID `json:"id"`
	ServiceID       uuid.UUID `json:"service_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	PriceCents      int64     `json:"price_cents"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

type ServiceDetail struct {
	Service      Service        `json:"service"`
	ProviderName string         `json:"provider_name"`
	ImageURL     string         `json:"image_url,omitempty"`
	Offers       []ServiceOffer `json:"offers"`
	Metrics      *ReviewMetrics `json:"metrics"`
}

type ServiceBooking struct {
	ID         uuid.UUID `json:"id"`
	ServiceID  uuid.UUID `json:"service_id"`
	OfferID    uuid.UUID `json:"offer_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	Status     string    `json:"status"`
	Note       string    `json:"note"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ServiceReview struct {
	ID            uuid.UUID `json:"id"`
	ServiceID     uuid.UUID `json:"service_id"`
	BookingID     uuid.UUID `json:"booking_id"`
	UserID        uuid.UUID `json:"user_id"`
	Username      string    `json:"username"`
	Communication *int      `json:"communication,omitempty"`
	Location      *int      `json:"location,omitempty"`
	Punctuality   *int      `json:"punctuality,omitempty"`
	Value         *int      `json:"value,omitempty"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}
