package booking

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"DormBiz/pkg/logger"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBookings struct {
	services map[uuid.UUID]*models.Service
	offers   map[uuid.UUID]*models.ServiceOffer
	bookings map[uuid.UUID]*models.ServiceBooking
}

func newMemBookings() *memBookings {
	return &memBookings{
		services: make(map[uuid.UUID]*models.Service),
		offers:   make(map[uuid.UUID]*models.ServiceOffer),
		bookings: make(map[uuid.UUID]*models.ServiceBooking),
	}
}

func (m *memBookings) ServiceByID(_ context.Context, id uuid.UUID) (*models.Service, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, app_errors.ErrServiceNotFound
	}
	return s, nil
}

func (m *memBookings) OfferByID(_ context.Context, id uuid.UUID) (*models.ServiceOffer, error) {
	o, ok := m.offers[id]
	if !ok {
		return nil, app_errors.ErrOfferNotFound
	}
	return o, nil
}

func (m *memBookings) CreateBooking(_ context.Context, b *models.ServiceBooking) error {
	for _, other := range m.bookings {
		if other.ServiceID != b.ServiceID {
			continue
		}
		if other.Status != models.BookingPending && other.Status != models.BookingConfirmed {
			continue
		}
		if b.StartsAt.Before(other.EndsAt) && other.StartsAt.Before(b.EndsAt) {
			return app_errors.ErrSlotTaken
		}
	}
	b.ID = uuid.New()
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memBookings) BookingByID(_ context.Context, id uuid.UUID) (*models.ServiceBooking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, app_errors.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBookings) UpdateBookingStatus(_ context.Context, id uuid.UUID, from, to string) error {
	b, ok := m.bookings[id]
	if !ok {
		return app_errors.ErrBookingNotFound
	}
	if b.Status != from {
		return app_errors.ErrInvalidTransition
	}
	b.Status = to
	return nil
}

func (m *memBookings) CustomerBookings(_ context.Context, customerID uuid.UUID) ([]models.ServiceBooking, error) {
	var out []models.ServiceBooking
	for _, b := range m.bookings {
		if b.CustomerID == customerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memBookings) ProviderBookings(_ context.Context, providerID uuid.UUID) ([]models.ServiceBooking, error) {
	var out []models.ServiceBooking
	for _, b := range m.bookings {
		if b.ProviderID == providerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

// Thursday 2026-10-15 08:00 UTC
var testNow = time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *BookingService
	store    *memBookings
	provider uuid.UUID
	customer uuid.UUID
	offer    *models.ServiceOffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemBookings()
	provider := uuid.New()
	service := &models.Service{
		ID:         uuid.New(),
		ProviderID: provider,
		Title:      "Calculus tutoring",
		Status:     models.ServiceActive,
		Availability: models.WeeklyAvailability{
			"friday": {{"09:00", "10:00"}, {"09:30", "12:00"}},
		},
	}
	store.services[service.ID] = service
	offer := &models.ServiceOffer{ID: uuid.New(), ServiceID: service.ID, Name: "1h session", PriceCents: 1500, DurationMinutes: 60}
	store.offers[offer.ID] = offer

	svc := NewBookingService(logger.NewDiscard(), store, store, store, time.UTC)
	svc.now = func() time.Time { return testNow }
	return &fixture{svc: svc, store: store, provider: provider, customer: uuid.New(), offer: offer}
}

func friday(hour, minute int) time.Time {
	return time.Date(2026, 10, 16, hour, minute, 0, 0, time.UTC)
}

func TestBook_InsideMergedSlot(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Book(context.Background(), f.customer, f.offer.ID, friday(10, 30), "chapter 3")
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, friday(11, 30), b.EndsAt)
	assert.Equal(t, f.provider, b.ProviderID)
	assert.Equal(t, int64(1500), b.PriceCents)
}

func TestBook_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, f.customer, f.offer.ID, friday(11, 30), "")
	assert.ErrorIs(t, err, app_errors.ErrOutsideAvailability)

	_, err = f.svc.Book(ctx, f.customer, f.offer.ID, time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC), "")
	assert.ErrorIs(t, err, app_errors.ErrOutsideAvailability)

	_, err = f.svc.Book(ctx, f.provider, f.offer.ID, friday(9, 0), "")
	assert.ErrorIs(t, err, app_errors.ErrOwnService)

	_, err = f.svc.Book(ctx, f.customer, f.offer.ID, testNow.Add(-time.Hour), "")
	assert.ErrorIs(t, err, app_errors.ErrInvalidTimeSlot)

	_, err = f.svc.Book(ctx, f.customer, uuid.New(), friday(9, 0), "")
	assert.ErrorIs(t, err, app_errors.ErrOfferNotFound)
}

func TestBook_Overlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Book(ctx, f.customer, f.offer.ID, friday(9, 0), "")
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, uuid.New(), f.offer.ID, friday(9, 30), "")
	assert.ErrorIs(t, err, app_errors.ErrSlotTaken)

	// back to back is fine
	_, err = f.svc.Book(ctx, uuid.New(), f.offer.ID, friday(10, 0), "")
	require.NoError(t, err)

	// a cancelled booking frees its slot
	_, err = f.svc.Cancel(ctx, first.ID, f.customer)
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, uuid.New(), f.offer.ID, friday(9, 0), "")
	require.NoError(t, err)
}

func TestTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Book(ctx, f.customer, f.offer.ID, friday(9, 0), "")
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, b.ID, f.provider)
	assert.ErrorIs(t, err, app_errors.ErrInvalidTransition)

	_, err = f.svc.Confirm(ctx, b.ID, f.customer)
	assert.ErrorIs(t, err, app_errors.ErrNotServiceProvider)

	b, err = f.svc.Confirm(ctx, b.ID, f.provider)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)

	_, err = f.svc.Decline(ctx, b.ID, f.provider)
	assert.ErrorIs(t, err, app_errors.ErrInvalidTransition)

	_, err = f.svc.Cancel(ctx, b.ID, f.provider)
	assert.ErrorIs(t, err, app_errors.ErrForbidden)

	b, err = f.svc.Complete(ctx, b.ID, f.provider)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, b.Status)

	_, err = f.svc.Cancel(ctx, b.ID, f.customer)
	assert.ErrorIs(t, err, app_errors.ErrInvalidTransition)
}

func TestBooking_HiddenFromStrangers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Book(ctx, f.customer, f.offer.ID, friday(9, 0), "")
	require.NoError(t, err)

	_, err = f.svc.Booking(ctx, b.ID, uuid.New())
	assert.ErrorIs(t, err, app_errors.ErrBookingNotFound)

	mine, err := f.svc.CustomerBookings(ctx, f.customer)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.svc.ProviderBookings(ctx, f.provider)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}
