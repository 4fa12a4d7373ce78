package cart

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"DormBiz/pkg/logger"
	"context"
	"errors"

	"github.com/google/uuid"
)

type cartRepo interface {
	ActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error
	Checkout(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	OrderedCarts(ctx context.Context, userID uuid.UUID) ([]models.Cart, error)
}

type productRepo interface {
	ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type CartService struct {
	log      logger.Log
	carts    cartRepo
	products productRepo
}

func NewCartService(l logger.Log, c cartRepo, p productRepo) *CartService {
	return &CartService{
		log:      l,
		carts:    c,
		products: p,
	}
}

func (s *CartService) Cart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.carts.ActiveCart(ctx, userID)
}

func itemQuantity(c *models.Cart, productID uuid.UUID) int {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

func (s *CartService) buyable(ctx context.Context, userID, productID uuid.UUID) (*models.Product, error) {
	p, err := s.products.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.ProductActive {
		return nil, app_errors.ErrProductNotFound
	}
	if p.SellerID == userID {
		return nil, app_errors.ErrOwnProduct
	}
	return p, nil
}

// AddItem puts quantity more of the product into the user's active cart.
func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, app_errors.ErrInvalidQuantity
	}
	p, err := s.buyable(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	c, err := s.carts.ActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	total := itemQuantity(c, productID) + quantity
	if total > p.Stock {
		return nil, app_errors.ErrOutOfStock
	}
	if err := s.carts.UpsertItem(ctx, c.ID, productID, total); err != nil {
		return nil, err
	}
	return s.carts.ActiveCart(ctx, userID)
}

// SetQuantity replaces the quantity of an item already in the cart.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, app_errors.ErrInvalidQuantity
	}
	c, err := s.carts.ActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if itemQuantity(c, productID) == 0 {
		return nil, app_errors.ErrCartItemNotFound
	}
	p, err := s.buyable(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if quantity > p.Stock {
		return nil, app_errors.ErrOutOfStock
	}
	if err := s.carts.UpsertItem(ctx, c.ID, productID, quantity); err != nil {
		return nil, err
	}
	return s.carts.ActiveCart(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error) {
	c, err := s.carts.ActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.RemoveItem(ctx, c.ID, productID); err != nil {
		return nil, err
	}
	return s.carts.ActiveCart(ctx, userID)
}

// Checkout turns the active cart into an order. Stock is decremented for
// every item in the same transaction that marks the cart ordered.
func (s *CartService) Checkout(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	c, err := s.carts.ActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, app_errors.ErrCartEmpty
	}
	ordered, err := s.carts.Checkout(ctx, c.ID)
	if err != nil {
		if !errors.Is(err, app_errors.ErrOutOfStock) {
			s.log.ErrorErr("checkout failed", err, "cart_id", c.ID)
		}
		return nil, err
	}
	s.log.Info("cart ordered", "cart_id", ordered.ID, "user_id", userID, "total_cents", ordered.TotalCents())
	return ordered, nil
}

func (s *CartService) Orders(ctx context.Context, userID uuid.UUID) ([]models.Cart, error) {
	return s.carts.OrderedCarts(ctx, userID)
}
