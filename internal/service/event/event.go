package event

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"DormBiz/internal/service/upload"
	"DormBiz/pkg/logger"
	"context"
	"time"

	"github.com/google/uuid"
)

type eventRepo interface {
	NewEvent(ctx context.Context, e *models.Event) error
	EventByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	UpdateEvent(ctx context.Context, e *models.Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	SetEventCover(ctx context.Context, id uuid.UUID, objectKey string) error
	UpcomingEvents(ctx context.Context, after time.Time, limit, offset int) ([]models.Event, error)
	// AddAttendee must fail with ErrEventFull when capacity is reached and
	// with ErrAlreadyAttending on a repeated RSVP.
	AddAttendee(ctx context.Context, eventID, userID uuid.UUID, capacity int) error
	RemoveAttendee(ctx context.Context, eventID, userID uuid.UUID) error
	Attendees(ctx context.Context, eventID uuid.UUID) ([]models.EventAttendee, error)
}

type imageRepo interface {
	Upload(ctx context.Context, ownerID uuid.UUID, f upload.File) (objectKey string, err error)
	URL(ctx context.Context, objectKey string) (string, error)
	Delete(ctx context.Context, objectKey string) error
}

type EventService struct {
	log         logger.Log
	events      eventRepo
	covers      imageRepo
	uploadLimit int64
	now         func() time.Time
}

func NewEventService(l logger.Log, e eventRepo, covers imageRepo, uploadLimit int64) *EventService {
	return &EventService{log: l, events: e, covers: covers, uploadLimit: uploadLimit, now: time.Now}
}

func validTimes(e *models.Event) error {
	if e.StartsAt.IsZero() || (!e.EndsAt.IsZero() && !e.EndsAt.After(e.StartsAt)) {
		return app_errors.ErrInvalidTimeSlot
	}
	if e.Capacity < 0 {
		return app_errors.ErrInvalidQuantity
	}
	return nil
}

func (s *EventService) withCover(ctx context.Context, e *models.Event) *models.Event {
	if e.CoverKey == "" {
		return e
	}
	url, err := s.covers.URL(ctx, e.CoverKey)
	if err != nil {
		s.log.ErrorErr("failed to presign event cover", err, "event_id", e.ID)
		return e
	}
	e.CoverURL = url
	return e
}

func (s *EventService) CreateEvent(ctx context.Context, e models.Event) (*models.Event, error) {
	if err := validTimes(&e); err != nil {
		return nil, err
	}
	if !e.StartsAt.After(s.now()) {
		return nil, app_errors.ErrEventPast
	}
	if err := s.events.NewEvent(ctx, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *EventService) owned(ctx context.Context, id, organizerID uuid.UUID) (*models.Event, error) {
	e, err := s.events.EventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.OrganizerID != organizerID {
		return nil, app_errors.ErrNotOrganizer
	}
	return e, nil
}

type EventUpdate struct {
	Title       *string
	Description *string
	Location    *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Capacity    *int
}

func (s *EventService) UpdateEvent(ctx context.Context, id, organizerID uuid.UUID, upd EventUpdate) (*models.Event, error) {
	e, err := s.owned(ctx, id, organizerID)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.Location != nil {
		e.Location = *upd.Location
	}
	if upd.StartsAt != nil {
		e.StartsAt = *upd.StartsAt
	}
	if upd.EndsAt != nil {
		e.EndsAt = *upd.EndsAt
	}
	if upd.Capacity != nil {
		e.Capacity = *upd.Capacity
	}
	if err := validTimes(e); err != nil {
		return nil, err
	}
	if err := s.events.UpdateEvent(ctx, e); err != nil {
		return nil, err
	}
	return s.withCover(ctx, e), nil
}

func (s *EventService) DeleteEvent(ctx context.Context, id, organizerID uuid.UUID) error {
	e, err := s.owned(ctx, id, organizerID)
	if err != nil {
		return err
	}
	if err := s.events.DeleteEvent(ctx, id); err != nil {
		return err
	}
	if e.CoverKey != "" {
		if err := s.covers.Delete(ctx, e.CoverKey); err != nil {
			s.log.ErrorErr("failed to delete event cover", err, "event_id", id)
		}
	}
	return nil
}

func (s *EventService) UploadCover(ctx context.Context, id, organizerID uuid.UUID, f upload.File) (string, error) {
	e, err := s.owned(ctx, id, organizerID)
	if err != nil {
		return "", err
	}
	if err := upload.CheckImage(&f, s.uploadLimit); err != nil {
		return "", err
	}
	key, err := s.covers.Upload(ctx, e.ID, f)
	if err != nil {
		s.log.ErrorErr("failed to upload event cover", err)
		return "", err
	}
	if err := s.events.SetEventCover(ctx, e.ID, key); err != nil {
		return "", err
	}
	if e.CoverKey != "" && e.CoverKey != key {
		if err := s.covers.Delete(ctx, e.CoverKey); err != nil {
			s.log.ErrorErr("failed to delete previous event cover", err, "event_id", id)
		}
	}
	return s.covers.URL(ctx, key)
}

func (s *EventService) Event(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := s.events.EventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withCover(ctx, e), nil
}

func (s *EventService) Upcoming(ctx context.Context, limit, offset int) ([]models.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	events, err := s.events.UpcomingEvents(ctx, s.now(), limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range events {
		s.withCover(ctx, &events[i])
	}
	return events, nil
}

func (s *EventService) Attend(ctx context.Context, eventID, userID uuid.UUID) (*models.Event, error) {
	e, err := s.events.EventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !e.StartsAt.After(s.now()) {
		return nil, app_errors.ErrEventPast
	}
	if e.Full() {
		return nil, app_errors.ErrEventFull
	}
	if err := s.events.AddAttendee(ctx, eventID, userID, e.Capacity); err != nil {
		return nil, err
	}
	return s.Event(ctx, eventID)
}

func (s *EventService) CancelAttendance(ctx context.Context, eventID, userID uuid.UUID) error {
	if _, err := s.events.EventByID(ctx, eventID); err != nil {
		return err
	}
	return s.events.RemoveAttendee(ctx, eventID, userID)
}

func (s *EventService) Attendees(ctx context.Context, eventID uuid.UUID) ([]models.EventAttendee, error) {
	if _, err := s.events.EventByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.events.Attendees(ctx, eventID)
}
