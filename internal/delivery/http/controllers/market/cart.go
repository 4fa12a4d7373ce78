package market

import (
	"DormBiz/internal/delivery/http/controllers"
	"DormBiz/internal/delivery/http/controllers/middleware"
	"DormBiz/internal/models"
	"DormBiz/pkg/logger"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CartService interface {
	Cart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error)
	Checkout(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Orders(ctx context.Context, userID uuid.UUID) ([]models.Cart, error)
}

type CartHandler struct {
	log     logger.Log
	service CartService
}

func NewCartHandler(l logger.Log, s CartService) *CartHandler {
	return &CartHandler{log: l, service: s}
}

type cartView struct {
	*models.Cart
	TotalCents int64 `json:"total_cents"`
}

func (h *CartHandler) respond(c *gin.Context, status int, cart *models.Cart, err error) {
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(status, cartView{Cart: cart, TotalCents: cart.TotalCents()})
}

func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.service.Cart(c.Request.Context(), middleware.ClientID(c))
	h.respond(c, http.StatusOK, cart, err)
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"omitempty,min=1"`
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var input addItemRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	cart, err := h.service.AddItem(c.Request.Context(), middleware.ClientID(c), input.ProductID, input.Quantity)
	h.respond(c, http.StatusOK, cart, err)
}

type setQuantityRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// SetQuantity treats zero as removal.
func (h *CartHandler) SetQuantity(c *gin.Context) {
	productID, ok := controllers.ParamUUID(c, "product_id")
	if !ok {
		return
	}
	var input setQuantityRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}
	userID := middleware.ClientID(c)
	if input.Quantity == 0 {
		cart, err := h.service.RemoveItem(c.Request.Context(), userID, productID)
		h.respond(c, http.StatusOK, cart, err)
		return
	}
	cart, err := h.service.SetQuantity(c.Request.Context(), userID, productID, input.Quantity)
	h.respond(c, http.StatusOK, cart, err)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := controllers.ParamUUID(c, "product_id")
	if !ok {
		return
	}
	cart, err := h.service.RemoveItem(c.Request.Context(), middleware.ClientID(c), productID)
	h.respond(c, http.StatusOK, cart, err)
}

func (h *CartHandler) Checkout(c *gin.Context) {
	order, err := h.service.Checkout(c.Request.Context(), middleware.ClientID(c))
	h.respond(c, http.StatusCreated, order, err)
}

func (h *CartHandler) Orders(c *gin.Context) {
	orders, err := h.service.Orders(c.Request.Context(), middleware.ClientID(c))
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}
