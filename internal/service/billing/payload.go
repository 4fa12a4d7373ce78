package billing

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// fallbackID identifies payloads that carry no event id of their own, so a
// replayed body is still recognised.
func fallbackID(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func parseUserID(s string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func unixPtr(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

func rfc3339Ptr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string            `json:"id"`
			Object            string            `json:"object"`
			Status            string            `json:"status"`
			CurrentPeriodEnd  int64             `json:"current_period_end"`
			Subscription      string            `json:"subscription"`
			ClientReferenceID string            `json:"client_reference_id"`
			CustomerEmail     string            `json:"customer_email"`
			Metadata          map[string]string `json:"metadata"`
			CustomerDetails   struct {
				Email string `json:"email"`
			} `json:"customer_details"`
			Items struct {
				Data []struct {
					Price struct {
						ID        string `json:"id"`
						LookupKey string `json:"lookup_key"`
					} `json:"price"`
				} `json:"data"`
			} `json:"items"`
		} `json:"object"`
	} `json:"data"`
}

func stripeStatus(s string) string {
	switch s {
	case "active", "trialing":
		return models.SubscriptionActive
	case "past_due", "unpaid", "incomplete":
		return models.SubscriptionPastDue
	default:
		return models.SubscriptionCanceled
	}
}

// ParseStripe normalizes the subscription related Stripe events. Other
// event types yield ErrUnsupportedEvent.
func ParseStripe(payload []byte) (*models.SubscriptionEvent, error) {
	var e stripeEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("decode stripe event: %w", err)
	}
	obj := e.Data.Object
	ev := &models.SubscriptionEvent{
		Provider: models.ProviderStripe,
		EventID:  e.ID,
		Kind:     e.Type,
		UserID:   parseUserID(obj.Metadata["user_id"]),
	}
	if ev.EventID == "" {
		ev.EventID = fallbackID(payload)
	}

	switch e.Type {
	case "checkout.session.completed":
		if obj.Subscription == "" {
			return nil, app_errors.ErrUnsupportedEvent
		}
		ev.ExternalID = obj.Subscription
		ev.Status = models.SubscriptionActive
		if ev.UserID == uuid.Nil {
			ev.UserID = parseUserID(obj.ClientReferenceID)
		}
		ev.Email = obj.CustomerDetails.Email
		if ev.Email == "" {
			ev.Email = obj.CustomerEmail
		}
		ev.Plan = obj.Metadata["plan"]
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		ev.ExternalID = obj.ID
		ev.Status = stripeStatus(obj.Status)
		if e.Type == "customer.subscription.deleted" {
			ev.Status = models.SubscriptionCanceled
		}
		ev.PeriodEnd = unixPtr(obj.CurrentPeriodEnd)
		if len(obj.Items.Data) > 0 {
			ev.Plan = obj.Items.Data[0].Price.LookupKey
		}
	case "invoice.payment_failed":
		if obj.Subscription == "" {
			return nil, app_errors.ErrUnsupportedEvent
		}
		ev.ExternalID = obj.Subscription
		ev.Status = models.SubscriptionPastDue
		ev.Email = obj.CustomerEmail
	default:
		return nil, app_errors.ErrUnsupportedEvent
	}
	return ev, nil
}

type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID               json.Number `json:"id"`
		SubscriptionCode string      `json:"subscription_code"`
		Status           string      `json:"status"`
		NextPaymentDate  *string     `json:"next_payment_date"`
		Customer         struct {
			Email    string            `json:"email"`
			Metadata map[string]string `json:"metadata"`
		} `json:"customer"`
		Plan struct {
			PlanCode string `json:"plan_code"`
			Name     string `json:"name"`
		} `json:"plan"`
		Subscription struct {
			SubscriptionCode string  `json:"subscription_code"`
			NextPaymentDate  *string `json:"next_payment_date"`
		} `json:"subscription"`
	} `json:"data"`
}

func ParsePaystack(payload []byte) (*models.SubscriptionEvent, error) {
	var e paystackEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("decode paystack event: %w", err)
	}
	d := e.Data
	ev := &models.SubscriptionEvent{
		Provider:   models.ProviderPaystack,
		Kind:       e.Event,
		Email:      d.Customer.Email,
		UserID:     parseUserID(d.Customer.Metadata["user_id"]),
		ExternalID: d.SubscriptionCode,
		Plan:       strings.ToLower(d.Plan.Name),
		PeriodEnd:  rfc3339Ptr(d.NextPaymentDate),
	}

	switch e.Event {
	case "subscription.create", "subscription.enable":
		ev.Status = models.SubscriptionActive
	case "subscription.disable":
		ev.Status = models.SubscriptionCanceled
	case "invoice.payment_failed":
		ev.Status = models.SubscriptionPastDue
		ev.ExternalID = d.Subscription.SubscriptionCode
		ev.PeriodEnd = rfc3339Ptr(d.Subscription.NextPaymentDate)
	default:
		return nil, app_errors.ErrUnsupportedEvent
	}
	if ev.ExternalID == "" {
		return nil, app_errors.ErrUnsupportedEvent
	}
	// Paystack events carry no unique id, the resource id is unique per event kind
	if d.ID != "" {
		ev.EventID = e.Event + ":" + d.ID.String()
	} else {
		ev.EventID = fallbackID(payload)
	}
	return ev, nil
}

type lemonEvent struct {
	Meta struct {
		EventName  string            `json:"event_name"`
		WebhookID  string            `json:"webhook_id"`
		CustomData map[string]string `json:"custom_data"`
	} `json:"meta"`
	Data struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Attributes struct {
			Status       string      `json:"status"`
			UserEmail    string      `json:"user_email"`
			VariantName  string      `json:"variant_name"`
			RenewsAt     *string     `json:"renews_at"`
			EndsAt       *string     `json:"ends_at"`
			UpdatedAt    string      `json:"updated_at"`
			Subscription json.Number `json:"subscription_id"`
		} `json:"attributes"`
	} `json:"data"`
}

func lemonStatus(s string) string {
	switch s {
	case "active", "on_trial":
		return models.SubscriptionActive
	case "past_due", "unpaid", "paused":
		return models.SubscriptionPastDue
	default:
		return models.SubscriptionCanceled
	}
}

func ParseLemonSqueezy(payload []byte) (*models.SubscriptionEvent, error) {
	var e lemonEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("decode lemonsqueezy event: %w", err)
	}
	a := e.Data.Attributes
	ev := &models.SubscriptionEvent{
		Provider:   models.ProviderLemonSqueezy,
		Kind:       e.Meta.EventName,
		UserID:     parseUserID(e.Meta.CustomData["user_id"]),
		Email:      a.UserEmail,
		ExternalID: e.Data.ID,
		Plan:       strings.ToLower(a.VariantName),
		Status:     lemonStatus(a.Status),
		PeriodEnd:  rfc3339Ptr(a.RenewsAt),
	}

	switch e.Meta.EventName {
	case "subscription_created", "subscription_updated", "subscription_resumed":
	case "subscription_cancelled", "subscription_expired":
		ev.Status = models.SubscriptionCanceled
		if end := rfc3339Ptr(a.EndsAt); end != nil {
			ev.PeriodEnd = end
		}
	case "subscription_payment_failed":
		// data is the invoice here
		ev.ExternalID = a.Subscription.String()
		ev.Status = models.SubscriptionPastDue
		ev.PeriodEnd = nil
	default:
		return nil, app_errors.ErrUnsupportedEvent
	}
	if ev.ExternalID == "" {
		return nil, app_errors.ErrUnsupportedEvent
	}

	switch {
	case e.Meta.WebhookID != "":
		ev.EventID = e.Meta.WebhookID
	case a.UpdatedAt != "":
		ev.EventID = e.Meta.EventName + ":" + e.Data.ID + ":" + a.UpdatedAt
	default:
		ev.EventID = fallbackID(payload)
	}
	return ev, nil
}

// Parse dispatches on provider.
func Parse(provider string, payload []byte) (*models.SubscriptionEvent, error) {
	switch provider {
	case models.ProviderStripe:
		return ParseStripe(payload)
	case models.ProviderPaystack:
		return ParsePaystack(payload)
	case models.ProviderLemonSqueezy:
		return ParseLemonSqueezy(payload)
	}
	return nil, fmt.Errorf("%w: provider %q", app_errors.ErrUnsupportedEvent, provider)
}
