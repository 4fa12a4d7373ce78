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

type SubscriptionPostgres struct {
	db *pgxpool.Pool
}

func NewSubscriptionPostgres(db *pgxpool.Pool) *SubscriptionPostgres {
	return &SubscriptionPostgres{db: db}
}

const subscriptionColumns = `id, user_id, provider, external_id, plan, status, current_period_end, created_at, updated_at`

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var s models.Subscription
	err := row.Scan(&s.ID, &s.UserID, &s.Provider, &s.ExternalID, &s.Plan, &s.Status,
		&s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SubscriptionPostgres) SubscriptionByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	return scanSubscription(r.db.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`, userID))
}

func (r *SubscriptionPostgres) SubscriptionByExternalID(ctx context.Context, provider, externalID string) (*models.Subscription, error) {
	return scanSubscription(r.db.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE provider = $1 AND external_id = $2
		ORDER BY updated_at DESC
		LIMIT 1
	`, provider, externalID))
}

// ApplyWebhook records the delivery and upserts the subscription in one
// transaction, so a crash between the two cannot swallow a retry.
func (r *SubscriptionPostgres) ApplyWebhook(ctx context.Context, provider, eventID, kind string, sub *models.Subscription) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO webhook_events (provider, event_id, kind) VALUES ($1, $2, $3)
		ON CONFLICT (provider, event_id) DO NOTHING
	`, provider, eventID, kind)
	if err != nil {
		return fmt.Errorf("failed to record webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrWebhookDuplicate
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO subscriptions (user_id, provider, external_id, plan, status, current_period_end)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		   SET provider = EXCLUDED.provider,
		       external_id = CASE WHEN EXCLUDED.external_id = '' THEN subscriptions.external_id ELSE EXCLUDED.external_id END,
		       plan = EXCLUDED.plan,
		       status = EXCLUDED.status,
		       current_period_end = COALESCE(EXCLUDED.current_period_end, subscriptions.current_period_end),
		       updated_at = NOW()
		RETURNING `+subscriptionColumns,
		sub.UserID, sub.Provider, sub.ExternalID, sub.Plan, sub.Status, sub.CurrentPeriodEnd,
	).Scan(&sub.ID, &sub.UserID, &sub.Provider, &sub.ExternalID, &sub.Plan, &sub.Status,
		&sub.CurrentPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if isCode(err, codeForeignKeyViolation) {
			return app_errors.ErrUserNotFound
		}
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return tx.Commit(ctx)
}
