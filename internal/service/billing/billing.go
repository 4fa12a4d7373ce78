package billing

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"DormBiz/pkg/logger"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type subscriptionRepo interface {
	SubscriptionByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	SubscriptionByExternalID(ctx context.Context, provider, externalID string) (*models.Subscription, error)
	// ApplyWebhook records (provider, eventID) and upserts the user's
	// subscription atomically. A recorded event yields ErrWebhookDuplicate.
	ApplyWebhook(ctx context.Context, provider, eventID, kind string, sub *models.Subscription) error
}

type userRepo interface {
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Secrets struct {
	Stripe          string
	StripeTolerance time.Duration
	Paystack        string
	LemonSqueezy    string
	DefaultPlan     string
}

// Outcome tells the webhook caller what happened to an authentic delivery.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

type BillingService struct {
	log     logger.Log
	subs    subscriptionRepo
	users   userRepo
	secrets Secrets
	now     func() time.Time
}

func NewBillingService(l logger.Log, s subscriptionRepo, u userRepo, secrets Secrets) *BillingService {
	if secrets.DefaultPlan == "" {
		secrets.DefaultPlan = "premium"
	}
	return &BillingService{log: l, subs: s, users: u, secrets: secrets, now: time.Now}
}

func (s *BillingService) Subscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	return s.subs.SubscriptionByUser(ctx, userID)
}

func (s *BillingService) verify(provider string, payload []byte, header http.Header) error {
	switch provider {
	case models.ProviderStripe:
		return VerifyStripe(payload, header.Get(StripeSignatureHeader), s.secrets.Stripe, s.secrets.StripeTolerance, s.now())
	case models.ProviderPaystack:
		return VerifyPaystack(payload, header.Get(PaystackSignatureHeader), s.secrets.Paystack)
	case models.ProviderLemonSqueezy:
		return VerifyLemonSqueezy(payload, header.Get(LemonSqueezySignatureHeader), s.secrets.LemonSqueezy)
	}
	return fmt.Errorf("%w: provider %q", app_errors.ErrUnsupportedEvent, provider)
}

// resolveUser finds the subscriber by id, then email, then by an existing
// subscription with the same external id.
func (s *BillingService) resolveUser(ctx context.Context, ev *models.SubscriptionEvent) (uuid.UUID, error) {
	if ev.UserID != uuid.Nil {
		if _, err := s.users.UserByID(ctx, ev.UserID); err == nil {
			return ev.UserID, nil
		} else if !errors.Is(err, app_errors.ErrUserNotFound) {
			return uuid.Nil, err
		}
	}
	if ev.Email != "" {
		u, err := s.users.UserByEmail(ctx, strings.ToLower(ev.Email))
		if err == nil {
			return u.ID, nil
		}
		if !errors.Is(err, app_errors.ErrUserNotFound) {
			return uuid.Nil, err
		}
	}
	sub, err := s.subs.SubscriptionByExternalID(ctx, ev.Provider, ev.ExternalID)
	if err != nil {
		if errors.Is(err, app_errors.ErrSubscriptionNotFound) {
			return uuid.Nil, app_errors.ErrUserNotFound
		}
		return uuid.Nil, err
	}
	return sub.UserID, nil
}

// HandleWebhook verifies and applies one delivery. Only a bad signature or an
// internal failure is an error; anything authentic is acknowledged.
func (s *BillingService) HandleWebhook(ctx context.Context, provider string, payload []byte, header http.Header) (Outcome, error) {
	if err := s.verify(provider, payload, header); err != nil {
		return "", err
	}
	log := s.log.With("provider", provider)

	ev, err := Parse(provider, payload)
	if err != nil {
		if errors.Is(err, app_errors.ErrUnsupportedEvent) {
			log.Debug("webhook ignored", "reason", err.Error())
			return OutcomeIgnored, nil
		}
		return "", err
	}
	log = log.With("event_id", ev.EventID, "kind", ev.Kind)

	userID, err := s.resolveUser(ctx, ev)
	if err != nil {
		if errors.Is(err, app_errors.ErrUserNotFound) {
			log.Warn("webhook for unknown subscriber", "email", ev.Email)
			return OutcomeIgnored, nil
		}
		return "", err
	}

	sub := &models.Subscription{
		UserID:           userID,
		Provider:         ev.Provider,
		ExternalID:       ev.ExternalID,
		Plan:             ev.Plan,
		Status:           ev.Status,
		CurrentPeriodEnd: ev.PeriodEnd,
	}
	if sub.Plan == "" {
		sub.Plan = s.secrets.DefaultPlan
		if current, err := s.subs.SubscriptionByUser(ctx, userID); err == nil && current.Plan != "" {
			sub.Plan = current.Plan
		}
	}
	if err := s.subs.ApplyWebhook(ctx, ev.Provider, ev.EventID, ev.Kind, sub); err != nil {
		if errors.Is(err, app_errors.ErrWebhookDuplicate) {
			log.Info("webhook replay acknowledged")
			return OutcomeDuplicate, nil
		}
		log.ErrorErr("failed to apply webhook", err)
		return "", err
	}
	log.Info("subscription updated", "user_id", userID, "status", sub.Status)
	return OutcomeApplied, nil
}
