package postgres

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductPostgres struct {
	db *pgxpool.Pool
}

func NewProductPostgres(db *pgxpool.Pool) *ProductPostgres {
	return &ProductPostgres{db: db}
}

const productColumns = `id, seller_id, title, description, category, condition, price_cents, stock, status, image_key, created_at, updated_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.SellerID, &p.Title, &p.Description, &p.Category, &p.Condition,
		&p.PriceCents, &p.Stock, &p.Status, &p.ImageKey, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductPostgres) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (seller_id, title, description, category, condition, price_cents, stock, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, p.SellerID, p.Title, p.Description, p.Category, p.Condition,
		p.PriceCents, p.Stock, p.Status).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isCode(err, codeForeignKeyViolation) {
			return app_errors.ErrUserNotFound
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *ProductPostgres) ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ProductPostgres) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		   SET title = $2, description = $3, category = $4, condition = $5,
		       price_cents = $6, stock = $7, updated_at = NOW()
		 WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, p.ID, p.Title, p.Description, p.Category, p.Condition,
		p.PriceCents, p.Stock).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return app_errors.ErrProductNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (r *ProductPostgres) SetProductStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrProductNotFound
	}
	return nil
}

func (r *ProductPostgres) SetProductImage(ctx context.Context, id uuid.UUID, objectKey string) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET image_key = $2, updated_at = NOW() WHERE id = $1`, id, objectKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrProductNotFound
	}
	return nil
}

// filter collects WHERE conditions with positional arguments.
type filter struct {
	conds []string
	args  []any
}

func (f *filter) add(cond string, arg any) {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(f.args))))
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(q)) + "%"
}

func (r *ProductPostgres) ListProducts(ctx context.Context, pf models.ProductFilter) ([]models.Product, int, error) {
	f := &filter{}
	f.add("status = ?", models.ProductActive)
	if pf.Category != "" {
		f.add("category = ?", pf.Category)
	}
	if pf.SellerID != uuid.Nil {
		f.add("seller_id = ?", pf.SellerID)
	}
	if strings.TrimSpace(pf.Query) != "" {
		f.add("(title ILIKE ? OR description ILIKE ?)", likePattern(pf.Query))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	args := append(f.args, pf.Limit, pf.Offset)
	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productColumns, f.where(), len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0, pf.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

func (r *ProductPostgres) CreateProductReview(ctx context.Context, rv *models.ProductReview) error {
	query := `
		INSERT INTO product_reviews (product_id, user_id, communication, packaging, quality, value, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, rv.ProductID, rv.UserID, rv.Communication, rv.Packaging,
		rv.Quality, rv.Value, rv.Comment).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		switch {
		case isCode(err, codeUniqueViolation):
			return app_errors.ErrAlreadyReviewed
		case isCode(err, codeCheckViolation):
			return app_errors.ErrRatingOutOfRange
		}
		return fmt.Errorf("failed to insert product review: %w", err)
	}
	return nil
}

func (r *ProductPostgres) ProductReviews(ctx context.Context, productID uuid.UUID) ([]models.ProductReview, error) {
	query := `
		SELECT pr.id, pr.product_id, pr.user_id, u.username, pr.communication, pr.packaging,
		       pr.quality, pr.value, pr.comment, pr.created_at
		FROM product_reviews pr
		JOIN users u ON u.id = pr.user_id
		WHERE pr.product_id = $1
		ORDER BY pr.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query product reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.ProductReview
	for rows.Next() {
		var rv models.ProductReview
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Username, &rv.Communication,
			&rv.Packaging, &rv.Quality, &rv.Value, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// HasPurchased reports whether the user has an ordered cart containing the product.
func (r *ProductPostgres) HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM carts c
			JOIN cart_items ci ON ci.cart_id = c.id
			WHERE c.user_id = $1 AND ci.product_id = $2 AND c.status = 'ordered'
		)
	`
	var bought bool
	if err := r.db.QueryRow(ctx, query, userID, productID).Scan(&bought); err != nil {
		return false, err
	}
	return bought, nil
}
