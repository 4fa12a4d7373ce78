package market

import (
	"DormBiz/internal/delivery/http/controllers"
	"DormBiz/internal/delivery/http/controllers/middleware"
	"DormBiz/internal/models"
	"DormBiz/internal/service/product"
	"DormBiz/internal/service/upload"
	"DormBiz/pkg/logger"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductService interface {
	CreateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id, sellerID uuid.UUID, upd product.ProductUpdate) (*models.Product, error)
	ArchiveProduct(ctx context.Context, id, sellerID uuid.UUID) error
	UploadImage(ctx context.Context, id, sellerID uuid.UUID, f upload.File) (string, error)
	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.ProductPreview, int, error)
	SearchProducts(ctx context.Context, query string, limit, offset int) ([]models.ProductPreview, error)
	ProductDetail(ctx context.Context, id uuid.UUID) (*models.ProductDetail, error)
	AddReview(ctx context.Context, r models.ProductReview) (*models.ProductReview, error)
	Reviews(ctx context.Context, productID uuid.UUID) ([]models.ProductReview, *models.ReviewMetrics, error)
}

type ProductHandler struct {
	log     logger.Log
	service ProductService
}

func NewProductHandler(l logger.Log, s ProductService) *ProductHandler {
	return &ProductHandler{log: l, service: s}
}

type createProductRequest struct {
	Title       string `json:"title" binding:"required,max=120"`
	Description string `json:"description" binding:"max=4000"`
	Category    string `json:"category" binding:"required,max=50"`
	Condition   string `json:"condition" binding:"omitempty,oneof=new like_new good fair"`
	PriceCents  int64  `json:"price_cents" binding:"min=0"`
	Stock       int    `json:"stock" binding:"min=0"`
}

func (h *ProductHandler) Create(c *gin.Context) {
	var input createProductRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}

	p, err := h.service.CreateProduct(c.Request.Context(), models.Product{
		SellerID:    middleware.ClientID(c),
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Condition:   input.Condition,
		PriceCents:  input.PriceCents,
		Stock:       input.Stock,
	})
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

type updateProductRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=120"`
	Description *string `json:"description" binding:"omitempty,max=4000"`
	Category    *string `json:"category" binding:"omitempty,min=1,max=50"`
	Condition   *string `json:"condition" binding:"omitempty,oneof=new like_new good fair"`
	PriceCents  *int64  `json:"price_cents" binding:"omitempty,min=0"`
	Stock       *int    `json:"stock" binding:"omitempty,min=0"`
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "product_id")
	if !ok {
		return
	}
	var input updateProductRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}

	p, err := h.service.UpdateProduct(c.Request.Context(), id, middleware.ClientID(c), product.ProductUpdate{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Condition:   input.Condition,
		PriceCents:  input.PriceCents,
		Stock:       input.Stock,
	})
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Archive(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "product_id")
	if !ok {
		return
	}
	if err := h.service.ArchiveProduct(c.Request.Context(), id, middleware.ClientID(c)); err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) UploadImage(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "product_id")
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

// List serves /products. A q parameter switches to full-text search.
func (h *ProductHandler) List(c *gin.Context) {
	limit, offset := controllers.Page(c)

	if q := c.Query("q"); q != "" && c.Query("category") == "" && c.Query("seller_id") == "" {
		items, err := h.service.SearchProducts(c.Request.Context(), q, limit, offset)
		if err != nil {
			controllers.RespondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
		return
	}

	filter := models.ProductFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Limit:    limit,
		Offset:   offset,
	}
	if seller := c.Query("seller_id"); seller != "" {
		id, err := uuid.Parse(seller)
		if err != nil {
			controllers.BadRequest(c, err)
			return
		}
		filter.SellerID = id
	}

	items, total, err := h.service.ListProducts(c.Request.Context(), filter)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *ProductHandler) Detail(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "product_id")
	if !ok {
		return
	}
	detail, err := h.service.ProductDetail(c.Request.Context(), id)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type productReviewRequest struct {
	Communication *int   `json:"communication" binding:"omitempty,min=1,max=5"`
	Packaging     *int   `json:"packaging" binding:"omitempty,min=1,max=5"`
	Quality       *int   `json:"quality" binding:"omitempty,min=1,max=5"`
	Value         *int   `json:"value" binding:"omitempty,min=1,max=5"`
	Comment       string `json:"comment" binding:"max=2000"`
}

func (h *ProductHandler) AddReview(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "product_id")
	if !ok {
		return
	}
	var input productReviewRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}

	r, err := h.service.AddReview(c.Request.Context(), models.ProductReview{
		ProductID:     id,
		UserID:        middleware.ClientID(c),
		Communication: input.Communication,
		Packaging:     input.Packaging,
		Quality:       input.Quality,
		Value:         input.Value,
		Comment:       input.Comment,
	})
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *ProductHandler) Reviews(c *gin.Context) {
	id, ok := controllers.ParamUUID(c, "product_id")
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
