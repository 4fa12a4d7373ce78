package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProductActive   = "active"
	ProductArchived = "archived"

	CartActive  = "active"
	CartOrdered = "ordered"
)

type Product struct {
	ID          uuid.UUID `json:"id"`
	SellerID    uuid.UUID `json:"seller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Condition   string    `json:"condition"`
	PriceCents  int64     `json:"price_cents"`
	Stock       int       `json:"stock"`
	Status      string    `json:"status"`
	ImageKey    string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductFilter struct {
	Query    string
	Category string
	SellerID uuid.UUID
	Limit    int
	Offset   int
}

type ProductPreview struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	PriceCents int64     `json:"price_cents"`
	Stock      int       `json:"stock"`
	ImageURL   string    `json:"image_url,omitempty"`
}

type ProductDetail struct {
	Product    Product        `json:"product"`
	SellerName string         `json:"seller_name"`
	ImageURL   string         `json:"image_url,omitempty"`
	Metrics    *ReviewMetrics `json:"metrics"`
}

type Cart struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Status    string     `json:"status"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	OrderedAt *time.Time `json:"ordered_at,omitempty"`
}

func (c Cart) TotalCents() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.SubtotalCents()
	}
	return total
}

type CartItem struct {
	ID         uuid.UUID `json:"id"`
	CartID     uuid.UUID `json:"cart_id"`
	ProductID  uuid.UUID `json:"product_id"`
	Title      string    `json:"title"`
	PriceCents int64     `json:"price_cents"`
	Quantity   int       `json:"quantity"`
	AddedAt    time.Time `json:"added_at"`
}

func (i CartItem) SubtotalCents() int64 {
	return i.PriceCents * int64(i.Quantity)
}

type ProductReview struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	UserID        uuid.UUID `json:"user_id"`
	Username      string    `json:"username"`
	Communication *int      `json:"communication,omitempty"`
	Packaging     *int      `json:"packaging,omitempty"`
	Quality       *int      `json:"quality,omitempty"`
	Value         *int      `json:"value,omitempty"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}
