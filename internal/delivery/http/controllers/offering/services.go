package offering

import (
	"DormBiz/internal/delivery/http/controllers"
	"DormBiz/internal/delivery/http/controllers/middleware"
	"DormBiz/internal/models"
	"DormBiz/internal/service/offering"
	"DormBiz/internal/service/upload"
	"DormBiz/pkg/logger"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OfferingService interface {
	CreateService(ctx context.Context, svc models.Service) (*models.Service, error)
	UpdateService(ctx context.Context, id, providerID uuid.UUID, upd offering.ServiceUpdate) (*models.Service, error)
	ArchiveService(ctx context.Context, id, providerID uuid.UUID) error
	UploadImage(ctx context.Context, id, providerID uuid.UUID, f upload.File) (string, error)
	ListServices(ctx context.Context, f models.ServiceFilter) ([]models.Service, int, error)
	SearchServices(ctx context.Context, query string, limit, offset int) ([]models.Service, error)
	ServiceDetail(ctx context.Context, id uuid.UUID) (*models.ServiceDetail, error)
	Availability(ctx context.Context, id uuid.UUID) (*offering.Week, error)
	CreateOffer(ctx context.Context, providerID uuid.UUID, o models.ServiceOffer) (*models.ServiceOffer, error)
	UpdateOffer(ctx context.Context, offerID, providerID uuid.UUID, upd offering.OfferUpdate) (*models.ServiceOffer, error)
	DeleteOffer(ctx context.Context, offerID, providerID uuid.UUID) error
	AddReview(ctx context.Context, r models.ServiceReview) (*models.ServiceReview, error)
	Reviews(ctx context.Context, serviceID uuid.UUID) ([]models.ServiceReview, *models.ReviewMetrics, error)
}

type ServiceHandler struct {
	log     logger.Log
	service OfferingService
}

func NewServiceHandler(l logger.Log, s OfferingService) *ServiceHandler {
	return &ServiceHandler{log: l, service: s}
}

type createServiceRequest struct {
	Title        string                    `json:"title" binding:"required,max=120"`
	Description  string                    `json:"description" binding:"max=4000"`
	Category     string                    `json:"category" binding:"required,max=50"`
	Location     string                    `json:"location" binding:"max=200"`
	Availability models.WeeklyAvailability `json:"availability" binding:"omitempty,dive,keys,required,endkeys,dive,dive,hhmm"`
}

func (h *ServiceHandler) Create(c *gin.Context) {
	var input createServiceRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}

	svc, err := h.service.CreateService(c.Request.Context(), models.Service{
		ProviderID:   middleware.ClientID(c),
		Title:        input.Title,
		Description:  input.Description,
		Category:     input.Category,
		Location:     input.Location,
		Availability: input.Availability,
	})
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

type updateServiceRequest struct {
	Title        *string                   `json:"title" binding:"omitempty,min=1,max=120"`
	Description  *string                   `json:"description" binding:"omitempty,max=4000"`
	Category     *string                   `json:"category" binding:"omitempty,min=1,max=50"`
	Location     *string                   `json:"location" binding:"omitempty,max=200"`
	Availability models.WeeklyAvailability `json:"availability" binding:"omitempty,dive,keys,required,endkeys,dive,dive,hhmm"`
}

func (h *ServiceHandler) Update(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "service_id")
	if !ok {
		return
	}
	var input updateServiceRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}

	svc, err := h.service.UpdateService(c.Request.Context(), id, middleware.ClientID(c), offering.ServiceUpdate{
		Title:        input.Title,
		Description:  input.Description,
		Category:     input.Category,
		Location:     input.Location,
		Availability: input.Availability,
	})
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (h *ServiceHandler) Archive(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "service_id")
	if !ok {
		return
	}
	if err := h.service.ArchiveService(c.Request.Context(), id, middleware.ClientID(c)); err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ServiceHandler) UploadImage(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "service_id")
	if !ok {
		return
	}
	f, closer, err := controllers.FormImage(c)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	defer closer.Close()

	url, err := h.service.UploadImage(c.Request.Context(), id, middleware.ClientID(c), f)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *ServiceHandler) List(c *gin.Context) {
	limit, offset := controllers.Page(c)

	if q := c.Query("q"); q != "" && c.Query("category") == "" && c.Query("provider_id") == "" {
		items, err := h.service.SearchServices(c.Request.Context(), q, limit, offset)
		if err != nil {
			controllers.RespondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
		return
	}

	filter := models.ServiceFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Limit:    limit,
		Offset:   offset,
	}
	if provider := c.Query("provider_id"); provider != "" {
		id, err := uuid.Parse(provider)
		if err != nil {
			controllers.BadRequest(c, err)
			return
		}
		filter.ProviderID = id
	}

	items, total, err := h.service.ListServices(c.Request.Context(), filter)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *ServiceHandler) Detail(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "service_id")
	if !ok {
		return
	}
	detail, err := h.service.ServiceDetail(c.Request.Context(), id)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ServiceHandler) Availability(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "service_id")
	if !ok {
		return
	}
	week, err := h.service.Availability(c.Request.Context(), id)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, week)
}

type offerRequest struct {
	Name            string `json:"name" binding:"required,max=120"`
	Description     string `json:"description" binding:"max=2000"`
	PriceCents      int64  `json:"price_cents" binding:"min=0"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=5,max=1440"`
}

func (h *ServiceHandler) CreateOffer(c *gin.Context) {
	serviceID, ok := controllers.ParamUUID(c, "service_id")
	if !ok {
		return
	}
	var input offerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}

	o, err := h.service.CreateOffer(c.Request.Context(), middleware.ClientID(c), models.ServiceOffer{
		ServiceID:       serviceID,
		Name:            input.Name,
		Description:     input.Description,
		PriceCents:      input.PriceCents,
		DurationMinutes: input.DurationMinutes,
	})
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

type updateOfferRequest struct {
	Name            *string `json:"name" binding:"omitempty,min=1,max=120"`
	Description     *string `json:"description" binding:"omitempty,max=2000"`
	PriceCents      *int64  `json:"price_cents" binding:"omitempty,min=0"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=5,max=1440"`
}

func (h *ServiceHandler) UpdateOffer(c *gin.Context) {
	offerID, ok := controllers.ParamUUID(c, "offer_id")
	if !ok {
		return
	}
	var input updateOfferRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}

	o, err := h.service.UpdateOffer(c.Request.Context(), offerID, middleware.ClientID(c), offering.OfferUpdate{
		Name:            input.Name,
		Description:     input.Description,
		PriceCents:      input.PriceCents,
		DurationMinutes: input.DurationMinutes,
	})
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *ServiceHandler) DeleteOffer(c *gin.Context) {
	offerID, ok := controllers.ParamUUID(c, "offer_id")
	if !ok {
		return
	}
	if err := h.service.DeleteOffer(c.Request.Context(), offerID, middleware.ClientID(c)); err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type serviceReviewRequest struct {
	BookingID     uuid.UUID `json:"booking_id" binding:"required"`
	Communication *int      `json:"communication" binding:"omitempty,min=1,max=5"`
	Location      *int      `json:"location" binding:"omitempty,min=1,max=5"`
	Punctuality   *int      `json:"punctuality" binding:"omitempty,min=1,max=5"`
	Value         *int      `json:"value" binding:"omitempty,min=1,max=5"`
	Comment       string    `json:"comment" binding:"max=2000"`
}

// AddReview reviews the service behind a completed booking. The service in
// the path is informational; the booking decides what gets reviewed.
func (h *ServiceHandler) AddReview(c *gin.Context) {
	if _, ok := controllers.ParamUUID(c, "service_id"); !ok {
		return
	}
	var input serviceReviewRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}

	r, err := h.service.AddReview(c.Request.Context(), models.ServiceReview{
		BookingID:     input.BookingID,
		UserID:        middleware.ClientID(c),
		Communication: input.Communication,
		Location:      input.Location,
		Punctuality:   input.Punctuality,
		Value:         input.Value,
		Comment:       input.Comment,
	})
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *ServiceHandler) Reviews(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "service_id")
	if !ok {
		return
	}
	reviews, metrics, err := h.service.Reviews(c.Request.Context(), id)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "metrics": metrics})
}
