package offering

import (
	"DormBiz/internal/delivery/http/controllers"
	"DormBiz/internal/delivery/http/controllers/middleware"
	"DormBiz/internal/models"
	"DormBiz/pkg/logger"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingService interface {
	Book(ctx context.Context, customerID, offerID uuid.UUID, startsAt time.Time, note string) (*models.ServiceBooking, error)
	Booking(ctx context.Context, id, userID uuid.UUID) (*models.ServiceBooking, error)
	Confirm(ctx context.Context, id, providerID uuid.UUID) (*models.ServiceBooking, error)
	Decline(ctx context.Context, id, providerID uuid.UUID) (*models.ServiceBooking, error)
	Complete(ctx context.Context, id, providerID uuid.UUID) (*models.ServiceBooking, error)
	Cancel(ctx context.Context, id, customerID uuid.UUID) (*models.ServiceBooking, error)
	CustomerBookings(ctx context.Context, customerID uuid.UUID) ([]models.ServiceBooking, error)
	ProviderBookings(ctx context.Context, providerID uuid.UUID) ([]models.ServiceBooking, error)
}

type BookingHandler struct {
	log     logger.Log
	service BookingService
}

func NewBookingHandler(l logger.Log, s BookingService) *BookingHandler {
	return &BookingHandler{log: l, service: s}
}

type bookRequest struct {
	StartsAt time.Time `json:"starts_at" binding:"required"`
	Note     string    `json:"note" binding:"max=1000"`
}

func (h *BookingHandler) Book(c *gin.Context) {
	offerID, ok := controllers.ParamUUID(c, "offer_id")
	if !ok {
		return
	}
	var input bookRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}

	b, err := h.service.Book(c.Request.Context(), middleware.ClientID(c), offerID, input.StartsAt, input.Note)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "booking_id")
	if !ok {
		return
	}
	b, err := h.service.Booking(c.Request.Context(), id, middleware.ClientID(c))
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type moveFunc func(ctx context.Context, id, userID uuid.UUID) (*models.ServiceBooking, error)

func (h *BookingHandler) move(c *gin.Context, fn moveFunc) {
	id, ok := controllers.ParamUUID(c, "booking_id")
	if !ok {
		return
	}
	b, err := fn(c.Request.Context(), id, middleware.ClientID(c))
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Confirm(c *gin.Context)  { h.move(c, h.service.Confirm) }
func (h *BookingHandler) Decline(c *gin.Context)  { h.move(c, h.service.Decline) }
func (h *BookingHandler) Complete(c *gin.Context) { h.move(c, h.service.Complete) }
func (h *BookingHandler) Cancel(c *gin.Context)   { h.move(c, h.service.Cancel) }

// Mine lists bookings the caller made, or with ?as=provider the ones made
// with the caller.
func (h *BookingHandler) Mine(c *gin.Context) {
	userID := middleware.ClientID(c)

	var (
		bookings []models.ServiceBooking
		err      error
	)
	switch c.DefaultQuery("as", "customer") {
	case "customer":
		bookings, err = h.service.CustomerBookings(c.Request.Context(), userID)
	case "provider":
		bookings, err = h.service.ProviderBookings(c.Request.Context(), userID)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "as must be customer or provider"})
		return
	}
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}
