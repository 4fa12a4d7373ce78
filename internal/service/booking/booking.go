package booking

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"DormBiz/internal/service/availability"
	"DormBiz/pkg/logger"
	"context"
	"time"

	"github.com/google/uuid"
)

type bookingRepo interface {
	// CreateBooking must fail with ErrSlotTaken when the range overlaps a
	// pending or confirmed booking of the same service.
	CreateBooking(ctx context.Context, b *models.ServiceBooking) error
	BookingByID(ctx context.Context, id uuid.UUID) (*models.ServiceBooking, error)
	// UpdateBookingStatus moves a booking only if it is still in status from.
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to string) error
	CustomerBookings(ctx context.Context, customerID uuid.UUID) ([]models.ServiceBooking, error)
	ProviderBookings(ctx context.Context, providerID uuid.UUID) ([]models.ServiceBooking, error)
}

type serviceRepo interface {
	ServiceByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
}

type offerRepo interface {
	OfferByID(ctx context.Context, id uuid.UUID) (*models.ServiceOffer, error)
}

type actor int

const (
	byProvider actor = iota
	byCustomer
)

type transition struct {
	from []string
	by   actor
}

var transitions = map[string]transition{
	models.BookingConfirmed: {from: []string{models.BookingPending}, by: byProvider},
	models.BookingDeclined:  {from: []string{models.BookingPending}, by: byProvider},
	models.BookingCompleted: {from: []string{models.BookingConfirmed}, by: byProvider},
	models.BookingCancelled: {from: []string{models.BookingPending, models.BookingConfirmed}, by: byCustomer},
}

type BookingService struct {
	log      logger.Log
	bookings bookingRepo
	services serviceRepo
	offers   offerRepo
	loc      *time.Location
	now      func() time.Time
}

func NewBookingService(l logger.Log, b bookingRepo, s serviceRepo, o offerRepo, loc *time.Location) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{log: l, bookings: b, services: s, offers: o, loc: loc, now: time.Now}
}

// Book reserves an offer starting at startsAt. The whole booking has to fit
// inside one availability slot of the provider.
func (s *BookingService) Book(ctx context.Context, customerID, offerID uuid.UUID, startsAt time.Time, note string) (*models.ServiceBooking, error) {
	offer, err := s.offers.OfferByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	svc, err := s.services.ServiceByID(ctx, offer.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.Status != models.ServiceActive {
		return nil, app_errors.ErrServiceNotFound
	}
	if svc.ProviderID == customerID {
		return nil, app_errors.ErrOwnService
	}
	if offer.DurationMinutes <= 0 || !startsAt.After(s.now()) {
		return nil, app_errors.ErrInvalidTimeSlot
	}

	start := startsAt.In(s.loc)
	end := start.Add(time.Duration(offer.DurationMinutes) * time.Minute)
	ok, err := availability.Covers(svc.Availability, start, end)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, app_errors.ErrOutsideAvailability
	}

	b := &models.ServiceBooking{
		ServiceID:  svc.ID,
		OfferID:    offer.ID,
		CustomerID: customerID,
		ProviderID: svc.ProviderID,
		StartsAt:   start.UTC(),
		EndsAt:     end.UTC(),
		Status:     models.BookingPending,
		Note:       note,
		PriceCents: offer.PriceCents,
	}
	if err := s.bookings.CreateBooking(ctx, b); err != nil {
		return nil, err
	}
	s.log.Info("booking created", "booking_id", b.ID, "service_id", svc.ID)
	return b, nil
}

func (s *BookingService) Booking(ctx context.Context, id, userID uuid.UUID) (*models.ServiceBooking, error) {
	b, err := s.bookings.BookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != userID && b.ProviderID != userID {
		return nil, app_errors.ErrBookingNotFound
	}
	return b, nil
}

func (s *BookingService) move(ctx context.Context, id, userID uuid.UUID, to string) (*models.ServiceBooking, error) {
	t, ok := transitions[to]
	if !ok {
		return nil, app_errors.ErrInvalidTransition
	}
	b, err := s.Booking(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	switch t.by {
	case byProvider:
		if b.ProviderID != userID {
			return nil, app_errors.ErrNotServiceProvider
		}
	case byCustomer:
		if b.CustomerID != userID {
			return nil, app_errors.ErrForbidden
		}
	}

	allowed := false
	for _, from := range t.from {
		if b.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, app_errors.ErrInvalidTransition
	}
	if err := s.bookings.UpdateBookingStatus(ctx, b.ID, b.Status, to); err != nil {
		return nil, err
	}
	b.Status = to
	b.UpdatedAt = s.now()
	return b, nil
}

func (s *BookingService) Confirm(ctx context.Context, id, providerID uuid.UUID) (*models.ServiceBooking, error) {
	return s.move(ctx, id, providerID, models.BookingConfirmed)
}

func (s *BookingService) Decline(ctx context.Context, id, providerID uuid.UUID) (*models.ServiceBooking, error) {
	return s.move(ctx, id, providerID, models.BookingDeclined)
}

func (s *BookingService) Complete(ctx context.Context, id, providerID uuid.UUID) (*models.ServiceBooking, error) {
	return s.move(ctx, id, providerID, models.BookingCompleted)
}

func (s *BookingService) Cancel(ctx context.Context, id, customerID uuid.UUID) (*models.ServiceBooking, error) {
	return s.move(ctx, id, customerID, models.BookingCancelled)
}

func (s *BookingService) CustomerBookings(ctx context.Context, customerID uuid.UUID) ([]models.ServiceBooking, error) {
	return s.bookings.CustomerBookings(ctx, customerID)
}

func (s *BookingService) ProviderBookings(ctx context.Context, providerID uuid.UUID) ([]models.ServiceBooking, error) {
	return s.bookings.ProviderBookings(ctx, providerID)
}
