package offering

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"DormBiz/internal/service/availability"
	"DormBiz/internal/service/upload"
	"DormBiz/pkg/logger"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	services map[uuid.UUID]*models.Service
	offers   map[uuid.UUID]*models.ServiceOffer
	reviews  []models.ServiceReview
	bookings map[uuid.UUID]*models.ServiceBooking
	users    map[uuid.UUID]*models.User
	images   map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		services: make(map[uuid.UUID]*models.Service),
		offers:   make(map[uuid.UUID]*models.ServiceOffer),
		bookings: make(map[uuid.UUID]*models.ServiceBooking),
		users:    make(map[uuid.UUID]*models.User),
		images:   make(map[string]bool),
	}
}

func (m *memStore) CreateService(_ context.Context, s *models.Service) error {
	s.ID = uuid.New()
	cp := *s
	m.services[s.ID] = &cp
	return nil
}

func (m *memStore) ServiceByID(_ context.Context, id uuid.UUID) (*models.Service, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, app_errors.ErrServiceNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) UpdateService(_ context.Context, s *models.Service) error {
	cp := *s
	m.services[s.ID] = &cp
	return nil
}

func (m *memStore) SetServiceStatus(_ context.Context, id uuid.UUID, status string) error {
	m.services[id].Status = status
	return nil
}

func (m *memStore) SetServiceImage(_ context.Context, id uuid.UUID, key string) error {
	m.services[id].ImageKey = key
	return nil
}

func (m *memStore) ListServices(_ context.Context, f models.ServiceFilter) ([]models.Service, int, error) {
	var out []models.Service
	for _, s := range m.services {
		if s.Status != models.ServiceActive {
			continue
		}
		if f.Category != "" && s.Category != f.Category {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(s.Title), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *memStore) CreateOffer(_ context.Context, o *models.ServiceOffer) error {
	o.ID = uuid.New()
	cp := *o
	m.offers[o.ID] = &cp
	return nil
}

func (m *memStore) OfferByID(_ context.Context, id uuid.UUID) (*models.ServiceOffer, error) {
	o, ok := m.offers[id]
	if !ok {
		return nil, app_errors.ErrOfferNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) UpdateOffer(_ context.Context, o *models.ServiceOffer) error {
	cp := *o
	m.offers[o.ID] = &cp
	return nil
}

func (m *memStore) DeleteOffer(_ context.Context, id uuid.UUID) error {
	delete(m.offers, id)
	return nil
}

func (m *memStore) OffersByService(_ context.Context, serviceID uuid.UUID) ([]models.ServiceOffer, error) {
	var out []models.ServiceOffer
	for _, o := range m.offers {
		if o.ServiceID == serviceID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memStore) CreateServiceReview(_ context.Context, r *models.ServiceReview) error {
	for _, existing := range m.reviews {
		if existing.BookingID == r.BookingID {
			return app_errors.ErrAlreadyReviewed
		}
	}
	r.ID = uuid.New()
	m.reviews = append(m.reviews, *r)
	return nil
}

func (m *memStore) ServiceReviews(_ context.Context, serviceID uuid.UUID) ([]models.ServiceReview, error) {
	var out []models.ServiceReview
	for _, r := range m.reviews {
		if r.ServiceID == serviceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) BookingByID(_ context.Context, id uuid.UUID) (*models.ServiceBooking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, app_errors.ErrBookingNotFound
	}
	return b, nil
}

func (m *memStore) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, app_errors.ErrUserNotFound
	}
	return u, nil
}

func (m *memStore) Upload(_ context.Context, ownerID uuid.UUID, f upload.File) (string, error) {
	key := ownerID.String() + "/" + f.Name
	m.images[key] = true
	return key, nil
}

func (m *memStore) URL(_ context.Context, key string) (string, error) {
	return "https://files.test/" + key, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.images, key)
	return nil
}

type failingIndex struct{}

func (failingIndex) Index(context.Context, models.SearchDocument) error { return nil }
func (failingIndex) Delete(context.Context, uuid.UUID) error { return nil }
func (failingIndex) Search(context.Context, string, int) ([]uuid.UUID, error) {
	return nil, errors.New("cluster down")
}

func intp(v int) *int { return &v }

func newTestService(m *memStore) *OfferingService {
	s := NewOfferingService(logger.NewDiscard(), Deps{
		Services: m,
		Offers:   m,
		Reviews:  m,
		Bookings: m,
		Users:    m,
		Images:   m,
	}, time.UTC, upload.MaxImageBytes)
	s.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	return s
}

func createTutoring(t *testing.T, s *OfferingService, provider uuid.UUID) *models.Service {
	t.Helper()
	svc, err := s.CreateService(context.Background(), models.Service{
		ProviderID: provider,
		Title:      "Physics tutoring",
		Category:   " Tutoring ",
		Availability: models.WeeklyAvailability{
			"Monday": {{"09:30", "11:00"}, {"09:00", "10:00"}},
			"Fri":    {{"14:00", "16:00"}},
			"sunday": {},
		},
	})
	require.NoError(t, err)
	return svc
}

func TestCreateService_NormalizesAvailability(t *testing.T) {
	m := newMemStore()
	s := newTestService(m)

	svc := createTutoring(t, s, uuid.New())
	assert.Equal(t, "tutoring", svc.Category)
	assert.Equal(t, models.ServiceActive, svc.Status)
	assert.Equal(t, [][2]string{{"09:00", "11:00"}}, svc.Availability["monday"])
	assert.Equal(t, [][2]string{{"14:00", "16:00"}}, svc.Availability["friday"])
	assert.NotContains(t, svc.Availability, "sunday")

	_, err := s.CreateService(context.Background(), models.Service{
		Availability: models.WeeklyAvailability{"monday": {{"11:00", "09:00"}}},
	})
	assert.ErrorIs(t, err, app_errors.ErrInvalidTimeSlot)
}

func TestAvailability_Week(t *testing.T) {
	m := newMemStore()
	s := newTestService(m)
	svc := createTutoring(t, s, uuid.New())

	week, err := s.Availability(context.Background(), svc.ID)
	require.NoError(t, err)
	require.Len(t, week.Days, 7)
	assert.Equal(t, "2026-10-11", week.Days[0].Date)
	assert.Equal(t, availability.NotAvailable, week.Days[0].Label)
	assert.True(t, week.Days[1].Available)
	assert.Equal(t, []availability.Slot{{Start: "09:00", End: "11:00"}}, week.Days[1].Slots)
	require.Len(t, week.Events, 2)
	assert.Equal(t, time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC), week.Events[1].Start)
}

func TestUpdateService_OnlyProvider(t *testing.T) {
	m := newMemStore()
	s := newTestService(m)
	provider := uuid.New()
	svc := createTutoring(t, s, provider)

	title := "Chemistry tutoring"
	_, err := s.UpdateService(context.Background(), svc.ID, uuid.New(), ServiceUpdate{Title: &title})
	assert.ErrorIs(t, err, app_errors.ErrNotServiceProvider)

	updated, err := s.UpdateService(context.Background(), svc.ID, provider, ServiceUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	require.NoError(t, s.ArchiveService(context.Background(), svc.ID, provider))
	list, total, err := s.ListServices(context.Background(), models.ServiceFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
}

func TestOffers(t *testing.T) {
	m := newMemStore()
	s := newTestService(m)
	provider := uuid.New()
	svc := createTutoring(t, s, provider)
	ctx := context.Background()

	_, err := s.CreateOffer(ctx, uuid.New(), models.ServiceOffer{ServiceID: svc.ID, Name: "1h", DurationMinutes: 60})
	assert.ErrorIs(t, err, app_errors.ErrNotServiceProvider)

	_, err = s.CreateOffer(ctx, provider, models.ServiceOffer{ServiceID: svc.ID, Name: "broken"})
	assert.ErrorIs(t, err, app_errors.ErrInvalidTimeSlot)

	o, err := s.CreateOffer(ctx, provider, models.ServiceOffer{ServiceID: svc.ID, Name: "1h", PriceCents: 2000, DurationMinutes: 60})
	require.NoError(t, err)

	price := int64(2500)
	o, err = s.UpdateOffer(ctx, o.ID, provider, OfferUpdate{PriceCents: &price})
	require.NoError(t, err)
	assert.Equal(t, price, o.PriceCents)

	detail, err := s.ServiceDetail(ctx, svc.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Offers, 1)
	assert.Nil(t, detail.Metrics)

	require.NoError(t, s.DeleteOffer(ctx, o.ID, provider))
	assert.Empty(t, m.offers)
}

func TestAddReview(t *testing.T) {
	m := newMemStore()
	s := newTestService(m)
	provider := uuid.New()
	customer := uuid.New()
	svc := createTutoring(t, s, provider)
	ctx := context.Background()

	booking := &models.ServiceBooking{ID: uuid.New(), ServiceID: svc.ID, CustomerID: customer, ProviderID: provider, Status: models.BookingConfirmed}
	m.bookings[booking.ID] = booking

	r := models.ServiceReview{BookingID: booking.ID, UserID: customer, Punctuality: intp(5), Value: intp(4)}
	_, err := s.AddReview(ctx, r)
	assert.ErrorIs(t, err, app_errors.ErrNotEligibleToReview)

	booking.Status = models.BookingCompleted
	_, err = s.AddReview(ctx, models.ServiceReview{BookingID: booking.ID, UserID: uuid.New(), Value: intp(4)})
	assert.ErrorIs(t, err, app_errors.ErrNotEligibleToReview)

	_, err = s.AddReview(ctx, models.ServiceReview{BookingID: booking.ID, UserID: customer})
	assert.ErrorIs(t, err, app_errors.ErrEmptyReview)

	saved, err := s.AddReview(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, svc.ID, saved.ServiceID)

	_, err = s.AddReview(ctx, r)
	assert.ErrorIs(t, err, app_errors.ErrAlreadyReviewed)

	reviews, metrics, err := s.Reviews(ctx, svc.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	require.NotNil(t, metrics)
	assert.Equal(t, 1, metrics.Count)
	assert.Equal(t, 4.5, metrics.Overall)
}

func TestUploadImage(t *testing.T) {
	m := newMemStore()
	s := newTestService(m)
	provider := uuid.New()
	svc := createTutoring(t, s, provider)
	ctx := context.Background()

	_, err := s.UploadImage(ctx, svc.ID, provider, upload.File{Name: "notes.pdf", Reader: strings.NewReader("x"), Size: 1})
	assert.ErrorIs(t, err, app_errors.ErrNotImage)

	url, err := s.UploadImage(ctx, svc.ID, provider, upload.File{Name: "desk.png", Reader: strings.NewReader("x"), Size: 1})
	require.NoError(t, err)
	assert.Contains(t, url, "desk.png")
}

func TestSearchServices_IndexDown(t *testing.T) {
	m := newMemStore()
	s := newTestService(m)
	s.search = failingIndex{}
	svc := createTutoring(t, s, uuid.New())

	hits, err := s.SearchServices(context.Background(), "physics", 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, svc.ID, hits[0].ID)
}
