package campus

import (
	"DormBiz/internal/delivery/http/controllers"
	"DormBiz/internal/delivery/http/controllers/middleware"
	"DormBiz/internal/models"
	"DormBiz/internal/service/event"
	"DormBiz/internal/service/upload"
	"DormBiz/pkg/logger"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EventService interface {
	CreateEvent(ctx context.Context, e models.Event) (*models.Event, error)
	UpdateEvent(ctx context.Context, id, organizerID uuid.UUID, upd event.EventUpdate) (*models.Event, error)
	DeleteEvent(ctx context.Context, id, organizerID uuid.UUID) error
	UploadCover(ctx context.Context, id, organizerID uuid.UUID, f upload.File) (string, error)
	Event(ctx context.Context, id uuid.UUID) (*models.Event, error)
	Upcoming(ctx context.Context, limit, offset int) ([]models.Event, error)
	Attend(ctx context.Context, eventID, userID uuid.UUID) (*models.Event, error)
	CancelAttendance(ctx context.Context, eventID, userID uuid.UUID) error
	Attendees(ctx context.Context, eventID uuid.UUID) ([]models.EventAttendee, error)
}

type EventHandler struct {
	log     logger.Log
	service EventService
}

func NewEventHandler(l logger.Log, s EventService) *EventHandler {
	return &EventHandler{log: l, service: s}
}

type createEventRequest struct {
	Title       string    `json:"title" binding:"required,max=200"`
	Description string    `json:"description" binding:"max=4000"`
	Location    string    `json:"location" binding:"max=200"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at"`
	Capacity    int       `json:"capacity" binding:"min=0"`
}

func (h *EventHandler) Create(c *gin.Context) {
	var input createEventRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}
	e, err := h.service.CreateEvent(c.Request.Context(), models.Event{
		OrganizerID: middleware.ClientID(c),
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		Capacity:    input.Capacity,
	})
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

type updateEventRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=4000"`
	Location    *string    `json:"location" binding:"omitempty,max=200"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    *int       `json:"capacity" binding:"omitempty,min=0"`
}

func (h *EventHandler) Update(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "event_id")
	if !ok {
		return
	}
	var input updateEventRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}
	e, err := h.service.UpdateEvent(c.Request.Context(), id, middleware.ClientID(c), event.EventUpdate{
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		Capacity:    input.Capacity,
	})
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "event_id")
	if !ok {
		return
	}
	if err := h.service.DeleteEvent(c.Request.Context(), id, middleware.ClientID(c)); err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EventHandler) UploadCover(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "event_id")
	if !ok {
		return
	}
	f, closer, err := controllers.FormImage(c)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	defer closer.Close()

	url, err := h.service.UploadCover(c.Request.Context(), id, middleware.ClientID(c), f)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *EventHandler) Get(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "event_id")
	if !ok {
		return
	}
	e, err := h.service.Event(c.Request.Context(), id)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *EventHandler) Upcoming(c *gin.Context) {
	limit, offset := controllers.Page(c)
	events, err := h.service.Upcoming(c.Request.Context(), limit, offset)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) Attend(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "event_id")
	if !ok {
		return
	}
	e, err := h.service.Attend(c.Request.Context(), id, middleware.ClientID(c))
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *EventHandler) CancelAttendance(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "event_id")
	if !ok {
		return
	}
	if err := h.service.CancelAttendance(c.Request.Context(), id, middleware.ClientID(c)); err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EventHandler) Attendees(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "event_id")
	if !ok {
		return
	}
	list, err := h.service.Attendees(c.Request.Context(), id)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
