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

type BookingPostgres struct {
	db *pgxpool.Pool
}

func NewBookingPostgres(db *pgxpool.Pool) *BookingPostgres {
	return &BookingPostgres{db: db}
}

const bookingColumns = `id, service_id, offer_id, customer_id, provider_id, starts_at, ends_at, status, note, price_cents, created_at, updated_at`

func scanBooking(row pgx.Row) (*models.ServiceBooking, error) {
	var b models.ServiceBooking
	err := row.Scan(&b.ID, &b.ServiceID, &b.OfferID, &b.CustomerID, &b.ProviderID, &b.StartsAt,
		&b.EndsAt, &b.Status, &b.Note, &b.PriceCents, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBooking relies on the service_bookings_no_overlap exclusion
// constraint to reject overlapping live bookings.
func (r *BookingPostgres) CreateBooking(ctx context.Context, b *models.ServiceBooking) error {
	query := `
		INSERT INTO service_bookings (service_id, offer_id, customer_id, provider_id, starts_at, ends_at, status, note, price_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, b.ServiceID, b.OfferID, b.CustomerID, b.ProviderID, b.StartsAt,
		b.EndsAt, b.Status, b.Note, b.PriceCents).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		switch {
		case isCode(err, codeExclusionViolation):
			return app_errors.ErrSlotTaken
		case isCode(err, codeForeignKeyViolation):
			return app_errors.ErrOfferNotFound
		case isCode(err, codeCheckViolation):
			return app_errors.ErrInvalidTimeSlot
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *BookingPostgres) BookingByID(ctx context.Context, id uuid.UUID) (*models.ServiceBooking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM service_bookings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// UpdateBookingStatus is a compare-and-set on the status column.
func (r *BookingPostgres) UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE service_bookings SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		if isCode(err, codeExclusionViolation) {
			return app_errors.ErrSlotTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrInvalidTransition
	}
	return nil
}

func (r *BookingPostgres) bookingsBy(ctx context.Context, column string, userID uuid.UUID) ([]models.ServiceBooking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM service_bookings WHERE `+column+` = $1 ORDER BY starts_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.ServiceBooking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *BookingPostgres) CustomerBookings(ctx context.Context, customerID uuid.UUID) ([]models.ServiceBooking, error) {
	return r.bookingsBy(ctx, "customer_id", customerID)
}

func (r *BookingPostgres) ProviderBookings(ctx context.Context, providerID uuid.UUID) ([]models.ServiceBooking, error) {
	return r.bookingsBy(ctx, "provider_id", providerID)
}
