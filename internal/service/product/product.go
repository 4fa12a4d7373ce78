package product

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"DormBiz/internal/service/review"
	"DormBiz/internal/service/upload"
	"DormBiz/pkg/logger"
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type productRepo interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	SetProductStatus(ctx context.Context, id uuid.UUID, status string) error
	SetProductImage(ctx context.Context, id uuid.UUID, objectKey string) error
	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error)
}

type reviewRepo interface {
	CreateProductReview(ctx context.Context, r *models.ProductReview) error
	ProductReviews(ctx context.Context, productID uuid.UUID) ([]models.ProductReview, error)
}

type purchaseRepo interface {
	HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error)
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

type ProductService struct {
	log         logger.Log
	products    productRepo
	reviews     reviewRepo
	purchases   purchaseRepo
	users       userRepo
	images      imageRepo
	search      searchRepo
	uploadLimit int64
}

// NewProductService wires the product use cases. search may be nil, in which
// case text queries fall back to the database.
func NewProductService(l logger.Log, p productRepo, r reviewRepo, pr purchaseRepo, u userRepo, i imageRepo, s searchRepo, uploadLimit int64) *ProductService {
	return &ProductService{
		log:         l,
		products:    p,
		reviews:     r,
		purchases:   pr,
		users:       u,
		images:      i,
		search:      s,
		uploadLimit: uploadLimit,
	}
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

func searchDoc(p *models.Product) models.SearchDocument {
	return models.SearchDocument{ID: p.ID, Title: p.Title, Description: p.Description, Category: p.Category}
}

func (s *ProductService) reindex(ctx context.Context, p *models.Product) {
	if s.search == nil {
		return
	}
	if err := s.search.Index(ctx, searchDoc(p)); err != nil {
		s.log.ErrorErr("product: failed to index", err, "product_id", p.ID)
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	if p.Stock < 0 || p.PriceCents < 0 {
		return nil, app_errors.ErrInvalidQuantity
	}
	p.Status = models.ProductActive
	p.Category = strings.ToLower(strings.TrimSpace(p.Category))
	if err := s.products.CreateProduct(ctx, &p); err != nil {
		return nil, err
	}
	s.reindex(ctx, &p)
	return &p, nil
}

func (s *ProductService) owned(ctx context.Context, id, sellerID uuid.UUID) (*models.Product, error) {
	p, err := s.products.ProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SellerID != sellerID {
		return nil, app_errors.ErrNotProductSeller
	}
	return p, nil
}

type ProductUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Condition   *string
	PriceCents  *int64
	Stock       *int
}

func (s *ProductService) UpdateProduct(ctx context.Context, id, sellerID uuid.UUID, upd ProductUpdate) (*models.Product, error) {
	p, err := s.owned(ctx, id, sellerID)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Category != nil {
		p.Category = strings.ToLower(strings.TrimSpace(*upd.Category))
	}
	if upd.Condition != nil {
		p.Condition = *upd.Condition
	}
	if upd.PriceCents != nil {
		if *upd.PriceCents < 0 {
			return nil, app_errors.ErrInvalidQuantity
		}
		p.PriceCents = *upd.PriceCents
	}
	if upd.Stock != nil {
		if *upd.Stock < 0 {
			return nil, app_errors.ErrInvalidQuantity
		}
		p.Stock = *upd.Stock
	}
	if err := s.products.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.reindex(ctx, p)
	return p, nil
}

// ArchiveProduct hides the product from listings. Carts and reviews keep
// pointing at it.
func (s *ProductService) ArchiveProduct(ctx context.Context, id, sellerID uuid.UUID) error {
	if _, err := s.owned(ctx, id, sellerID); err != nil {
		return err
	}
	if err := s.products.SetProductStatus(ctx, id, models.ProductArchived); err != nil {
		return err
	}
	if s.search != nil {
		if err := s.search.Delete(ctx, id); err != nil {
			s.log.ErrorErr("product: failed to remove from index", err, "product_id", id)
		}
	}
	return nil
}

func (s *ProductService) UploadImage(ctx context.Context, id, sellerID uuid.UUID, f upload.File) (string, error) {
	p, err := s.owned(ctx, id, sellerID)
	if err != nil {
		return "", err
	}
	if err := upload.CheckImage(&f, s.uploadLimit); err != nil {
		return "", err
	}

	if p.ImageKey != "" {
		if err := s.images.Delete(ctx, p.ImageKey); err != nil {
			s.log.ErrorErr("failed to delete previous product image", err)
		}
	}
	key, err := s.images.Upload(ctx, p.ID, f)
	if err != nil {
		s.log.ErrorErr("failed to upload product image", err)
		return "", err
	}
	if err := s.products.SetProductImage(ctx, p.ID, key); err != nil {
		s.log.ErrorErr("failed to save product image key", err)
		return "", err
	}
	return s.images.URL(ctx, key)
}

func (s *ProductService) imageURL(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	u, err := s.images.URL(ctx, key)
	if err != nil {
		s.log.ErrorErr("failed to presign product image", err)
		return ""
	}
	return u
}

func (s *ProductService) previews(ctx context.Context, products []models.Product) []models.ProductPreview {
	out := make([]models.ProductPreview, 0, len(products))
	for _, p := range products {
		out = append(out, models.ProductPreview{
			ID:         p.ID,
			Title:      p.Title,
			Category:   p.Category,
			PriceCents: p.PriceCents,
			Stock:      p.Stock,
			ImageURL:   s.imageURL(ctx, p.ImageKey),
		})
	}
	return out
}

func (s *ProductService) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.ProductPreview, int, error) {
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
	products, total, err := s.products.ListProducts(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return s.previews(ctx, products), total, nil
}

// SearchProducts runs a full text query. Hits that are no longer active are
// skipped.
func (s *ProductService) SearchProducts(ctx context.Context, query string, limit, offset int) ([]models.ProductPreview, error) {
	limit, offset = clampPage(limit, offset)
	if s.search == nil {
		return s.searchDB(ctx, query, limit, offset)
	}

	ids, err := s.search.Search(ctx, query, limit+offset)
	if err != nil {
		s.log.ErrorErr("product search failed, using database", err)
		return s.searchDB(ctx, query, limit, offset)
	}
	if len(ids) <= offset {
		return []models.ProductPreview{}, nil
	}
	ids = ids[offset:]

	products := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.products.ProductByID(ctx, id)
		if err != nil {
			if !errors.Is(err, app_errors.ErrProductNotFound) {
				s.log.ErrorErr("search: failed to load product", err, "product_id", id)
			}
			continue
		}
		if p.Status != models.ProductActive {
			continue
		}
		products = append(products, *p)
	}
	return s.previews(ctx, products), nil
}

func (s *ProductService) searchDB(ctx context.Context, query string, limit, offset int) ([]models.ProductPreview, error) {
	products, _, err := s.products.ListProducts(ctx, models.ProductFilter{Query: query, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return s.previews(ctx, products), nil
}

// ProductDetail loads the product and then fetches seller, image and review
// metrics concurrently.
func (s *ProductService) ProductDetail(ctx context.Context, id uuid.UUID) (*models.ProductDetail, error) {
	p, err := s.products.ProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.ProductDetail{Product: *p}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		seller, err := s.users.UserByID(gctx, p.SellerID)
		if err != nil {
			s.log.ErrorErr("product detail: failed to get seller", err)
			return nil
		}
		detail.SellerName = seller.Username
		return nil
	})
	g.Go(func() error {
		detail.ImageURL = s.imageURL(gctx, p.ImageKey)
		return nil
	})
	g.Go(func() error {
		reviews, err := s.reviews.ProductReviews(gctx, p.ID)
		if err != nil {
			return err
		}
		detail.Metrics = review.ProductMetrics(reviews)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *ProductService) AddReview(ctx context.Context, r models.ProductReview) (*models.ProductReview, error) {
	if err := review.Validate(review.ProductRatings(r)); err != nil {
		return nil, err
	}
	p, err := s.products.ProductByID(ctx, r.ProductID)
	if err != nil {
		return nil, err
	}
	if p.SellerID == r.UserID {
		return nil, app_errors.ErrNotEligibleToReview
	}
	bought, err := s.purchases.HasPurchased(ctx, r.UserID, r.ProductID)
	if err != nil {
		return nil, err
	}
	if !bought {
		return nil, app_errors.ErrNotEligibleToReview
	}
	if err := s.reviews.CreateProductReview(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *ProductService) Reviews(ctx context.Context, productID uuid.UUID) ([]models.ProductReview, *models.ReviewMetrics, error) {
	if _, err := s.products.ProductByID(ctx, productID); err != nil {
		return nil, nil, err
	}
	reviews, err := s.reviews.ProductReviews(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	return reviews, review.ProductMetrics(reviews), nil
}
