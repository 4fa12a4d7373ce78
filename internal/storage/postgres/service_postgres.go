package postgres

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ServicePostgres struct {
	db *pgxpool.Pool
}

func NewServicePostgres(db *pgxpool.Pool) *ServicePostgres {
	return &ServicePostgres{db: db}
}

const serviceColumns = `id, provider_id, title, description, category, location, availability, status, image_key, created_at, updated_at`

func scanService(row pgx.Row) (*models.Service, error) {
	var s models.Service
	err := row.Scan(&s.ID, &s.ProviderID, &s.Title, &s.Description, &s.Category, &s.Location,
		&s.Availability, &s.Status, &s.ImageKey, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ServicePostgres) CreateService(ctx context.Context, s *models.Service) error {
	query := `
		INSERT INTO services (provider_id, title, description, category, location, availability, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, s.ProviderID, s.Title, s.Description, s.Category, s.Location,
		s.Availability, s.Status).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isCode(err, codeForeignKeyViolation) {
			return app_errors.ErrUserNotFound
		}
		return fmt.Errorf("failed to insert service: %w", err)
	}
	return nil
}

func (r *ServicePostgres) ServiceByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	s, err := scanService(r.db.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrServiceNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *ServicePostgres) UpdateService(ctx context.Context, s *models.Service) error {
	query := `
		UPDATE services
		   SET title = $2, description = $3, category = $4, location = $5,
		       availability = $6, updated_at = NOW()
		 WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, s.ID, s.Title, s.Description, s.Category, s.Location,
		s.Availability).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return app_errors.ErrServiceNotFound
		}
		return fmt.Errorf("failed to update service: %w", err)
	}
	return nil
}

func (r *ServicePostgres) SetServiceStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE services SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrServiceNotFound
	}
	return nil
}

func (r *ServicePostgres) SetServiceImage(ctx context.Context, id uuid.UUID, objectKey string) error {
	tag, err := r.db.Exec(ctx, `UPDATE services SET image_key = $2, updated_at = NOW() WHERE id = $1`, id, objectKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrServiceNotFound
	}
	return nil
}

func (r *ServicePostgres) ListServices(ctx context.Context, sf models.ServiceFilter) ([]models.Service, int, error) {
	f := &filter{}
	f.add("status = ?", models.ServiceActive)
	if sf.Category != "" {
		f.add("category = ?", sf.Category)
	}
	if sf.ProviderID != uuid.Nil {
		f.add("provider_id = ?", sf.ProviderID)
	}
	if strings.TrimSpace(sf.Query) != "" {
		f.add("(title ILIKE ? OR description ILIKE ?)", likePattern(sf.Query))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM services`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count services: %w", err)
	}

	args := append(f.args, sf.Limit, sf.Offset)
	query := fmt.Sprintf(`SELECT %s FROM services%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		serviceColumns, f.where(), len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	services := make([]models.Service, 0, sf.Limit)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		services = append(services, *s)
	}
	return services, total, rows.Err()
}

func (r *ServicePostgres) CreateOffer(ctx context.Context, o *models.ServiceOffer) error {
	query := `
		INSERT INTO service_offers (service_id, name, description, price_cents, duration_minutes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, o.ServiceID, o.Name, o.Description, o.PriceCents, o.DurationMinutes).
		Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		if isCode(err, codeForeignKeyViolation) {
			return app_errors.ErrServiceNotFound
		}
		return fmt.Errorf("failed to insert offer: %w", err)
	}
	return nil
}

func (r *ServicePostgres) OfferByID(ctx context.Context, id uuid.UUID) (*models.ServiceOffer, error) {
	query := `
		SELECT id, service_id, name, description, price_cents, duration_minutes, created_at
		FROM service_offers WHERE id = $1
	`
	var o models.ServiceOffer
	err := r.db.QueryRow(ctx, query, id).Scan(&o.ID, &o.ServiceID, &o.Name, &o.Description,
		&o.PriceCents, &o.DurationMinutes, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrOfferNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *ServicePostgres) UpdateOffer(ctx context.Context, o *models.ServiceOffer) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE service_offers
		   SET name = $2, description = $3, price_cents = $4, duration_minutes = $5
		 WHERE id = $1
	`, o.ID, o.Name, o.Description, o.PriceCents, o.DurationMinutes)
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrOfferNotFound
	}
	return nil
}

// DeleteOffer fails with ErrInvalidTransition while bookings still point at
// the offer.
func (r *ServicePostgres) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM service_offers WHERE id = $1`, id)
	if err != nil {
		if isCode(err, codeForeignKeyViolation) {
			return app_errors.ErrInvalidTransition
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrOfferNotFound
	}
	return nil
}

func (r *ServicePostgres) OffersByService(ctx context.Context, serviceID uuid.UUID) ([]models.ServiceOffer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, service_id, name, description, price_cents, duration_minutes, created_at
		FROM service_offers
		WHERE service_id = $1
		ORDER BY price_cents, created_at
	`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	offers := []models.ServiceOffer{}
	for rows.Next() {
		var o models.ServiceOffer
		if err := rows.Scan(&o.ID, &o.ServiceID, &o.Name, &o.Description, &o.PriceCents, &o.DurationMinutes, &o.CreatedAt); err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func (r *ServicePostgres) CreateServiceReview(ctx context.Context, rv *models.ServiceReview) error {
	query := `
		INSERT INTO service_reviews (service_id, booking_id, user_id, communication, location, punctuality, value, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, rv.ServiceID, rv.BookingID, rv.UserID, rv.Communication,
		rv.Location, rv.Punctuality, rv.Value, rv.Comment).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		switch {
		case isCode(err, codeUniqueViolation):
			return app_errors.ErrAlreadyReviewed
		case isCode(err, codeCheckViolation):
			return app_errors.ErrRatingOutOfRange
		}
		return fmt.Errorf("failed to insert service review: %w", err)
	}
	return nil
}

func (r *ServicePostgres) ServiceReviews(ctx context.Context, serviceID uuid.UUID) ([]models.ServiceReview, error) {
	rows, err := r.db.Query(ctx, `
		SELECT sr.id, sr.service_id, sr.booking_id, sr.user_id, u.username, sr.communication,
		       sr.location, sr.punctuality, sr.value, sr.comment, sr.created_at
		FROM service_reviews sr
		JOIN users u ON u.id = sr.user_id
		WHERE sr.service_id = $1
		ORDER BY sr.created_at DESC
	`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query service reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.ServiceReview
	for rows.Next() {
		var rv models.ServiceReview
		if err := rows.Scan(&rv.ID, &rv.ServiceID, &rv.BookingID, &rv.UserID, &rv.Username,
			&rv.Communication, &rv.Location, &rv.Punctuality, &rv.Value, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
