package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProviderStripe       = "stripe"
	ProviderPaystack     = "paystack"
	ProviderLemonSqueezy = "lemonsqueezy"

	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

type Subscription struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	Provider         string     `json:"provider"`
	ExternalID       string     `json:"external_id"`
	Plan             string     `json:"plan"`
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// SubscriptionEvent is a provider webhook normalized into the fields DormBiz
// cares about. Either UserID or Email identifies the subscriber.
type SubscriptionEvent struct {
	Provider   string
	EventID    string
	Kind       string
	UserID     uuid.UUID
	Email      string
	ExternalID string
	Plan       string
	Status     string
	PeriodEnd  *time.Time
}
