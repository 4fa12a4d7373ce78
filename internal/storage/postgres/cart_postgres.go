package postgres

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CartPostgres struct {
	db *pgxpool.Pool
}

func NewCartPostgres(db *pgxpool.Pool) *CartPostgres {
	return &CartPostgres{db: db}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// cartItems loads cart lines. Ordered carts report the frozen price, active
// carts the current product price.
func cartItems(ctx context.Context, q querier, cartID uuid.UUID) ([]models.CartItem, error) {
	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, p.title, COALESCE(ci.price_cents, p.price_cents),
		       ci.quantity, ci.added_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at
	`
	rows, err := q.Query(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Title, &it.PriceCents, &it.Quantity, &it.AddedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ActiveCart returns the user's active cart, creating it on first use.
func (r *CartPostgres) ActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	query := `
		WITH created AS (
			INSERT INTO carts (user_id) VALUES ($1)
			ON CONFLICT (user_id) WHERE status = 'active' DO NOTHING
			RETURNING id, user_id, status, created_at, ordered_at
		)
		SELECT id, user_id, status, created_at, ordered_at FROM created
		UNION ALL
		SELECT id, user_id, status, created_at, ordered_at FROM carts WHERE user_id = $1 AND status = 'active'
		LIMIT 1
	`
	var c models.Cart
	err := r.db.QueryRow(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.Status, &c.CreatedAt, &c.OrderedAt)
	if err != nil {
		if isCode(err, codeForeignKeyViolation) {
			return nil, app_errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get active cart: %w", err)
	}
	c.Items, err = cartItems(ctx, r.db, c.ID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CartPostgres) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
	`
	if _, err := r.db.Exec(ctx, query, cartID, productID, quantity); err != nil {
		if isCode(err, codeCheckViolation) {
			return app_errors.ErrInvalidQuantity
		}
		return fmt.Errorf("failed to save cart item: %w", err)
	}
	return nil
}

func (r *CartPostgres) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrCartItemNotFound
	}
	return nil
}

// Checkout locks every product in the cart, decrements stock, freezes item
// prices and marks the cart ordered, all in one transaction.
func (r *CartPostgres) Checkout(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var c models.Cart
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, status, created_at
		FROM carts WHERE id = $1 AND status = 'active'
		FOR UPDATE
	`, cartID).Scan(&c.ID, &c.UserID, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = app_errors.ErrCartEmpty
		}
		return nil, err
	}

	// products are locked in id order so concurrent checkouts cannot deadlock
	rows, err := tx.Query(ctx, `
		SELECT p.id, p.stock, p.status, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY p.id
		FOR UPDATE OF p
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	type line struct {
		productID uuid.UUID
		stock     int
		status    string
		quantity  int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err = rows.Scan(&l.productID, &l.stock, &l.status, &l.quantity); err != nil {
			rows.Close()
			return nil, err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		err = app_errors.ErrCartEmpty
		return nil, err
	}

	for _, l := range lines {
		if l.status != models.ProductActive || l.stock < l.quantity {
			err = app_errors.ErrOutOfStock
			return nil, err
		}
		if _, err = tx.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1`, l.productID, l.quantity); err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	if _, err = tx.Exec(ctx, `
		UPDATE cart_items ci SET price_cents = p.price_cents
		FROM products p
		WHERE ci.product_id = p.id AND ci.cart_id = $1
	`, cartID); err != nil {
		return nil, fmt.Errorf("failed to freeze prices: %w", err)
	}
	if err = tx.QueryRow(ctx, `
		UPDATE carts SET status = 'ordered', ordered_at = NOW()
		WHERE id = $1
		RETURNING status, ordered_at
	`, cartID).Scan(&c.Status, &c.OrderedAt); err != nil {
		return nil, fmt.Errorf("failed to mark cart ordered: %w", err)
	}

	if c.Items, err = cartItems(ctx, tx, cartID); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CartPostgres) OrderedCarts(ctx context.Context, userID uuid.UUID) ([]models.Cart, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, status, created_at, ordered_at
		FROM carts
		WHERE user_id = $1 AND status = 'ordered'
		ORDER BY ordered_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	var carts []models.Cart
	for rows.Next() {
		var c models.Cart
		if err := rows.Scan(&c.ID, &c.UserID, &c.Status, &c.CreatedAt, &c.OrderedAt); err != nil {
			rows.Close()
			return nil, err
		}
		carts = append(carts, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range carts {
		if carts[i].Items, err = cartItems(ctx, r.db, carts[i].ID); err != nil {
			return nil, err
		}
	}
	return carts, nil
}
