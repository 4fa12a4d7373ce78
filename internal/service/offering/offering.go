package offering

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"DormBiz/internal/service/availability"
	"DormBiz/internal/service/review"
	"DormBiz/internal/service/upload"
	"DormBiz/pkg/logger"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type serviceRepo interface {
	CreateService(ctx context.Context, s *models.Service) error
	ServiceByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	UpdateService(ctx context.Context, s *models.Service) error
	SetServiceStatus(ctx context.Context, id uuid.UUID, status string) error
	SetServiceImage(ctx context.Context, id uuid.UUID, objectKey string) error
	ListServices(ctx context.Context, f models.ServiceFilter) ([]models.Service, int, error)
}

type offerRepo interface {
	CreateOffer(ctx context.Context, o *models.ServiceOffer) error
	OfferByID(ctx context.Context, id uuid.UUID) (*models.ServiceOffer, error)
	UpdateOffer(ctx context.Context, o *models.ServiceOffer) error
	DeleteOffer(ctx context.Context, id uuid.UUID) error
	OffersByService(ctx context.Context, serviceID uuid.UUID) ([]models.ServiceOffer, error)
}

type reviewRepo interface {
	CreateServiceReview(ctx context.Context, r *models.ServiceReview) error
	ServiceReviews(ctx context.Context, serviceID uuid.UUID) ([]models.ServiceReview, error)
}

type bookingRepo interface {
	BookingByID(ctx context.Context, id uuid.UUID) (*models.ServiceBooking, error)
}

type userRepo interface {
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type imageRepo interface {
	Upload(ctx context.Context, ownerID uuid.UUID, f upload.File) (objectKey string, err error)
	URL(ctx context.Context, objectKey string) (string, error)
	Delete(ctx context.Context, objectKey string) error
}

type searchRepo interface {
	Index(ctx context.Context, doc models.SearchDocument) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, size int) ([]uuid.UUID, error)
}

type OfferingService struct {
	log         logger.Log
	services    serviceRepo
	offers      offerRepo
	reviews     reviewRepo
	bookings    bookingRepo
	users       userRepo
	images      imageRepo
	search      searchRepo
	loc         *time.Location
	uploadLimit int64
	now         func() time.Time
}

type Deps struct {
	Services serviceRepo
	Offers   offerRepo
	Reviews  reviewRepo
	Bookings bookingRepo
	Users    userRepo
	Images   imageRepo
	// Search is optional; without it text queries go to the database.
	Search searchRepo
}

func NewOfferingService(l logger.Log, d Deps, loc *time.Location, uploadLimit int64) *OfferingService {
	if loc == nil {
		loc = time.UTC
	}
	return &OfferingService{
		log:         l,
		services:    d.Services,
		offers:      d.Offers,
		reviews:     d.Reviews,
		bookings:    d.Bookings,
		users:       d.Users,
		images:      d.Images,
		search:      d.Search,
		loc:         loc,
		uploadLimit: uploadLimit,
		now:         time.Now,
	}
}

func (s *OfferingService) reindex(ctx context.Context, svc *models.Service) {
	if s.search == nil {
		return
	}
	doc := models.SearchDocument{ID: svc.ID, Title: svc.Title, Description: svc.Description, Category: svc.Category}
	if err := s.search.Index(ctx, doc); err != nil {
		s.log.ErrorErr("service: failed to index", err, "service_id", svc.ID)
	}
}

func (s *OfferingService) CreateService(ctx context.Context, svc models.Service) (*models.Service, error) {
	avail, err := availability.Normalize(svc.Availability)
	if err != nil {
		return nil, err
	}
	svc.Availability = avail
	svc.Status = models.ServiceActive
	svc.Category = strings.ToLower(strings.TrimSpace(svc.Category))
	if err := s.services.CreateService(ctx, &svc); err != nil {
		return nil, err
	}
	s.reindex(ctx, &svc)
	return &svc, nil
}

func (s *OfferingService) owned(ctx context.Context, id, providerID uuid.UUID) (*models.Service, error) {
	svc, err := s.services.ServiceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc.ProviderID != providerID {
		return nil, app_errors.ErrNotServiceProvider
	}
	return svc, nil
}

type ServiceUpdate struct {
	Title        *string
	Description  *string
	Category     *string
	Location     *string
	Availability models.WeeklyAvailability
}

func (s *OfferingService) UpdateService(ctx context.Context, id, providerID uuid.UUID, upd ServiceUpdate) (*models.Service, error) {
	svc, err := s.owned(ctx, id, providerID)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		svc.Title = *upd.Title
	}
	if upd.Description != nil {
		svc.Description = *upd.Description
	}
	if upd.Category != nil {
		svc.Category = strings.ToLower(strings.TrimSpace(*upd.Category))
	}
	if upd.Location != nil {
		svc.Location = *upd.Location
	}
	if upd.Availability != nil {
		avail, err := availability.Normalize(upd.Availability)
		if err != nil {
			return nil, err
		}
		svc.Availability = avail
	}
	if err := s.services.UpdateService(ctx, svc); err != nil {
		return nil, err
	}
	s.reindex(ctx, svc)
	return svc, nil
}

func (s *OfferingService) ArchiveService(ctx context.Context, id, providerID uuid.UUID) error {
	if _, err := s.owned(ctx, id, providerID); err != nil {
		return err
	}
	if err := s.services.SetServiceStatus(ctx, id, models.ServiceArchived); err != nil {
		return err
	}
	if s.search != nil {
		if err := s.search.Delete(ctx, id); err != nil {
			s.log.ErrorErr("service: failed to remove from index", err, "service_id", id)
		}
	}
	return nil
}

func (s *OfferingService) UploadImage(ctx context.Context, id, providerID uuid.UUID, f upload.File) (string, error) {
	svc, err := s.owned(ctx, id, providerID)
	if err != nil {
		return "", err
	}
	if err := upload.CheckImage(&f, s.uploadLimit); err != nil {
		return "", err
	}
	if svc.ImageKey != "" {
		if err := s.images.Delete(ctx, svc.ImageKey); err != nil {
			s.log.ErrorErr("failed to delete previous service image", err)
		}
	}
	key, err := s.images.Upload(ctx, svc.ID, f)
	if err != nil {
		s.log.ErrorErr("failed to upload service image", err)
		return "", err
	}
	if err := s.services.SetServiceImage(ctx, svc.ID, key); err != nil {
		return "", err
	}
	return s.images.URL(ctx, key)
}

func (s *OfferingService) imageURL(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	u, err := s.images.URL(ctx, key)
	if err != nil {
		s.log.ErrorErr("failed to presign service image", err)
		return ""
	}
	return u
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *OfferingService) ListServices(ctx context.Context, f models.ServiceFilter) ([]models.Service, int, error) {
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
	return s.services.ListServices(ctx, f)
}

func (s *OfferingService) SearchServices(ctx context.Context, query string, limit, offset int) ([]models.Service, error) {
	limit, offset = clampPage(limit, offset)
	if s.search == nil {
		return s.searchDB(ctx, query, limit, offset)
	}
	ids, err := s.search.Search(ctx, query, limit+offset)
	if err != nil {
		s.log.ErrorErr("service search failed, using database", err)
		return s.searchDB(ctx, query, limit, offset)
	}
	if len(ids) <= offset {
		return []models.Service{}, nil
	}
	out := make([]models.Service, 0, len(ids)-offset)
	for _, id := range ids[offset:] {
		svc, err := s.services.ServiceByID(ctx, id)
		if err != nil {
			if !errors.Is(err, app_errors.ErrServiceNotFound) {
				s.log.ErrorErr("search: failed to load service", err, "service_id", id)
			}
			continue
		}
		if svc.Status != models.ServiceActive {
			continue
		}
		out = append(out, *svc)
	}
	return out, nil
}

func (s *OfferingService) searchDB(ctx context.Context, query string, limit, offset int) ([]models.Service, error) {
	list, _, err := s.services.ListServices(ctx, models.ServiceFilter{Query: query, Limit: limit, Offset: offset})
	return list, err
}

func (s *OfferingService) ServiceDetail(ctx context.Context, id uuid.UUID) (*models.ServiceDetail, error) {
	svc, err := s.services.ServiceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.ServiceDetail{Service: *svc}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		provider, err := s.users.UserByID(gctx, svc.ProviderID)
		if err != nil {
			s.log.ErrorErr("service detail: failed to get provider", err)
			return nil
		}
		detail.ProviderName = provider.Username
		return nil
	})
	g.Go(func() error {
		detail.ImageURL = s.imageURL(gctx, svc.ImageKey)
		return nil
	})
	g.Go(func() error {
		offers, err := s.offers.OffersByService(gctx, svc.ID)
		if err != nil {
			return err
		}
		detail.Offers = offers
		return nil
	})
	g.Go(func() error {
		reviews, err := s.reviews.ServiceReviews(gctx, svc.ID)
		if err != nil {
			return err
		}
		detail.Metrics = review.ServiceMetrics(reviews)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

type Week struct {
	ServiceID uuid.UUID            `json:"service_id"`
	Timezone  string               `json:"timezone"`
	Days      []availability.Day   `json:"days"`
	Events    []availability.Event `json:"events"`
}

// Availability returns the provider's slots laid over the current week.
func (s *OfferingService) Availability(ctx context.Context, id uuid.UUID) (*Week, error) {
	svc, err := s.services.ServiceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	days, err := availability.Week(svc.Availability, s.now().In(s.loc))
	if err != nil {
		return nil, err
	}
	return &Week{
		ServiceID: svc.ID,
		Timezone:  s.loc.String(),
		Days:      days,
		Events:    availability.Events(days, s.loc, svc.Title),
	}, nil
}

func (s *OfferingService) CreateOffer(ctx context.Context, providerID uuid.UUID, o models.ServiceOffer) (*models.ServiceOffer, error) {
	if _, err := s.owned(ctx, o.ServiceID, providerID); err != nil {
		return nil, err
	}
	if o.DurationMinutes <= 0 || o.PriceCents < 0 {
		return nil, app_errors.ErrInvalidTimeSlot
	}
	if err := s.offers.CreateOffer(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

type OfferUpdate struct {
	Name            *string
	Description     *string
	PriceCents      *int64
	DurationMinutes *int
}

func (s *OfferingService) UpdateOffer(ctx context.Context, offerID, providerID uuid.UUID, upd OfferUpdate) (*models.ServiceOffer, error) {
	o, err := s.offers.OfferByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, o.ServiceID, providerID); err != nil {
		return nil, err
	}
	if upd.Name != nil {
		o.Name = *upd.Name
	}
	if upd.Description != nil {
		o.Description = *upd.Description
	}
	if upd.PriceCents != nil {
		o.PriceCents = *upd.PriceCents
	}
	if upd.DurationMinutes != nil {
		o.DurationMinutes = *upd.DurationMinutes
	}
	if o.DurationMinutes <= 0 || o.PriceCents < 0 {
		return nil, app_errors.ErrInvalidTimeSlot
	}
	if err := s.offers.UpdateOffer(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OfferingService) DeleteOffer(ctx context.Context, offerID, providerID uuid.UUID) error {
	o, err := s.offers.OfferByID(ctx, offerID)
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, o.ServiceID, providerID); err != nil {
		return err
	}
	return s.offers.DeleteOffer(ctx, offerID)
}

// AddReview records a review for a completed booking. Each booking can be
// reviewed once, by its customer.
func (s *OfferingService) AddReview(ctx context.Context, r models.ServiceReview) (*models.ServiceReview, error) {
	if err := review.Validate(review.ServiceRatings(r)); err != nil {
		return nil, err
	}
	b, err := s.bookings.BookingByID(ctx, r.BookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != r.UserID || b.Status != models.BookingCompleted {
		return nil, app_errors.ErrNotEligibleToReview
	}
	r.ServiceID = b.ServiceID
	if err := s.reviews.CreateServiceReview(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *OfferingService) Reviews(ctx context.Context, serviceID uuid.UUID) ([]models.ServiceReview, *models.ReviewMetrics, error) {
	if _, err := s.services.ServiceByID(ctx, serviceID); err != nil {
		return nil, nil, err
	}
	reviews, err := s.reviews.ServiceReviews(ctx, serviceID)
	if err != nil {
		return nil, nil, err
	}
	return reviews, review.ServiceMetrics(reviews), nil
}
