package billing

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"DormBiz/pkg/logger"
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stripeSecret   = "whsec_test"
	paystackSecret = "sk_test_paystack"
	lemonSecret    = "lemon_signing_secret"
)

var testNow = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

type memBilling struct {
	users   map[uuid.UUID]*models.User
	subs    map[uuid.UUID]*models.Subscription
	events  map[string]bool
	applied int
}

func newMemBilling() *memBilling {
	return &memBilling{
		users:  make(map[uuid.UUID]*models.User),
		subs:   make(map[uuid.UUID]*models.Subscription),
		events: make(map[string]bool),
	}
}

func (m *memBilling) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, app_errors.ErrUserNotFound
	}
	return u, nil
}

func (m *memBilling) UserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, app_errors.ErrUserNotFound
}

func (m *memBilling) SubscriptionByUser(_ context.Context, userID uuid.UUID) (*models.Subscription, error) {
	s, ok := m.subs[userID]
	if !ok {
		return nil, app_errors.ErrSubscriptionNotFound
	}
	return s, nil
}

func (m *memBilling) SubscriptionByExternalID(_ context.Context, provider, externalID string) (*models.Subscription, error) {
	for _, s := range m.subs {
		if s.Provider == provider && s.ExternalID == externalID {
			return s, nil
		}
	}
	return nil, app_errors.ErrSubscriptionNotFound
}

func (m *memBilling) ApplyWebhook(_ context.Context, provider, eventID, _ string, sub *models.Subscription) error {
	key := provider + "/" + eventID
	if m.events[key] {
		return app_errors.ErrWebhookDuplicate
	}
	m.events[key] = true
	cp := *sub
	m.subs[sub.UserID] = &cp
	m.applied++
	return nil
}

func newTestService() (*BillingService, *memBilling, *models.User) {
	m := newMemBilling()
	u := &models.User{ID: uuid.New(), Email: "ada@campus.edu"}
	m.users[u.ID] = u
	s := NewBillingService(logger.NewDiscard(), m, m, Secrets{
		Stripe:          stripeSecret,
		StripeTolerance: 5 * time.Minute,
		Paystack:        paystackSecret,
		LemonSqueezy:    lemonSecret,
	})
	s.now = func() time.Time { return testNow }
	return s, m, u
}

func stripeBody(eventID, kind, status string, userID uuid.UUID) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"type":%q,"data":{"object":{"id":"sub_123","status":%q,"current_period_end":1793000000,"metadata":{"user_id":%q},"items":{"data":[{"price":{"lookup_key":"pro"}}]}}}}`,
		eventID, kind, status, userID))
}

func TestStripeWebhook_AppliesOnce(t *testing.T) {
	s, m, u := newTestService()
	ctx := context.Background()
	body := stripeBody("evt_1", "customer.subscription.created", "active", u.ID)
	h := http.Header{}
	h.Set(StripeSignatureHeader, StripeHeader(body, stripeSecret, testNow))

	out, err := s.HandleWebhook(ctx, models.ProviderStripe, body, h)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, out)

	sub, err := s.Subscription(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.Equal(t, "pro", sub.Plan)
	assert.Equal(t, "sub_123", sub.ExternalID)
	require.NotNil(t, sub.CurrentPeriodEnd)

	out, err = s.HandleWebhook(ctx, models.ProviderStripe, body, h)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, out)
	assert.Equal(t, 1, m.applied)
}

func TestStripeWebhook_BadSignature(t *testing.T) {
	s, m, u := newTestService()
	body := stripeBody("evt_2", "customer.subscription.created", "active", u.ID)

	cases := map[string]string{
		"missing":      "",
		"wrong secret": StripeHeader(body, "whsec_other", testNow),
		"too old":      StripeHeader(body, stripeSecret, testNow.Add(-10*time.Minute)),
		"garbage":      "t=abc,v1=zz",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			h := http.Header{}
			h.Set(StripeSignatureHeader, header)
			_, err := s.HandleWebhook(context.Background(), models.ProviderStripe, body, h)
			assert.ErrorIs(t, err, app_errors.ErrInvalidSignature)
		})
	}
	assert.Zero(t, m.applied)
}

func TestPaystackWebhook(t *testing.T) {
	s, m, u := newTestService()
	ctx := context.Background()
	body := []byte(`{"event":"subscription.create","data":{"id":77,"subscription_code":"SUB_x","status":"active","next_payment_date":"2026-11-16T10:00:00.000Z","customer":{"email":"ADA@campus.edu"},"plan":{"plan_code":"PLN_1","name":"Premium"}}}`)

	h := http.Header{}
	h.Set(PaystackSignatureHeader, HexHMAC(models.ProviderPaystack, body, "nope"))
	_, err := s.HandleWebhook(ctx, models.ProviderPaystack, body, h)
	assert.ErrorIs(t, err, app_errors.ErrInvalidSignature)

	h.Set(PaystackSignatureHeader, HexHMAC(models.ProviderPaystack, body, paystackSecret))
	out, err := s.HandleWebhook(ctx, models.ProviderPaystack, body, h)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, out)
	assert.Equal(t, "premium", m.subs[u.ID].Plan)
	assert.Equal(t, "SUB_x", m.subs[u.ID].ExternalID)

	// disable carries no email here, the subscription is found by its code
	disable := []byte(`{"event":"subscription.disable","data":{"id":78,"subscription_code":"SUB_x","status":"complete","plan":{"name":""}}}`)
	h.Set(PaystackSignatureHeader, HexHMAC(models.ProviderPaystack, disable, paystackSecret))
	out, err = s.HandleWebhook(ctx, models.ProviderPaystack, disable, h)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, out)
	assert.Equal(t, models.SubscriptionCanceled, m.subs[u.ID].Status)
	assert.Equal(t, "premium", m.subs[u.ID].Plan)
}

func TestLemonSqueezyWebhook(t *testing.T) {
	s, m, u := newTestService()
	ctx := context.Background()
	body := []byte(fmt.Sprintf(`{"meta":{"event_name":"subscription_payment_failed","custom_data":{"user_id":%q}},"data":{"id":"inv_9","type":"subscription-invoices","attributes":{"status":"failed","subscription_id":4242,"updated_at":"2026-10-16T09:00:00Z"}}}`, u.ID))
	h := http.Header{}
	h.Set(LemonSqueezySignatureHeader, HexHMAC(models.ProviderLemonSqueezy, body, lemonSecret))

	out, err := s.HandleWebhook(ctx, models.ProviderLemonSqueezy, body, h)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, out)
	assert.Equal(t, models.SubscriptionPastDue, m.subs[u.ID].Status)
	assert.Equal(t, "4242", m.subs[u.ID].ExternalID)
}

func TestWebhook_IgnoredDeliveries(t *testing.T) {
	s, m, _ := newTestService()
	ctx := context.Background()

	unknownKind := []byte(`{"id":"evt_3","type":"charge.refunded","data":{"object":{}}}`)
	h := http.Header{}
	h.Set(StripeSignatureHeader, StripeHeader(unknownKind, stripeSecret, testNow))
	out, err := s.HandleWebhook(ctx, models.ProviderStripe, unknownKind, h)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out)

	stranger := stripeBody("evt_4", "customer.subscription.updated", "active", uuid.New())
	h.Set(StripeSignatureHeader, StripeHeader(stranger, stripeSecret, testNow))
	out, err = s.HandleWebhook(ctx, models.ProviderStripe, stranger, h)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out)
	assert.Zero(t, m.applied)
}

func TestParseStripe_Statuses(t *testing.T) {
	id := uuid.New()
	ev, err := ParseStripe(stripeBody("evt_5", "customer.subscription.updated", "past_due", id))
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionPastDue, ev.Status)
	assert.Equal(t, id, ev.UserID)

	ev, err = ParseStripe(stripeBody("evt_6", "customer.subscription.deleted", "active", id))
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionCanceled, ev.Status)

	_, err = ParseStripe([]byte(`{`))
	assert.Error(t, err)
}
