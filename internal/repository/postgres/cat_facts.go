package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/repository"
)

const subscriptionColumns = `id, user_id, is_active, preferred_time::text, timezone,
	last_sent_at, total_sent, created_at, updated_at`

// GetSubscriptionByUser returns the user's subscription, active or not.
func (r *Repository) GetSubscriptionByUser(ctx context.Context, userID int64) (*domain.CatFactSubscription, error) {
	const query = `SELECT ` + subscriptionColumns + ` FROM cat_fact_subscriptions WHERE user_id = $1`
	return scanSubscription(r.pool.QueryRow(ctx, query, userID))
}

// CreateSubscription inserts a subscription; a second one per user conflicts.
func (r *Repository) CreateSubscription(ctx context.Context, sub *domain.CatFactSubscription) error {
	if sub == nil || sub.UserID == 0 {
		return repository.ErrInvalidArgument
	}
	const query = `INSERT INTO cat_fact_subscriptions (user_id, is_active, preferred_time, timezone)
		VALUES ($1, $2, $3::time, $4)
		RETURNING id, total_sent, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		sub.UserID,
		sub.IsActive,
		sub.PreferredTime,
		sub.Timezone,
	).Scan(&sub.ID, &sub.TotalSent, &sub.CreatedAt, &sub.UpdatedAt)
	return mapWriteError(err)
}

// UpdateSubscription writes the preference columns.
func (r *Repository) UpdateSubscription(ctx context.Context, sub *domain.CatFactSubscription) error {
	if sub == nil {
		return repository.ErrInvalidArgument
	}
	const query = `UPDATE cat_fact_subscriptions SET
			is_active = $2,
			preferred_time = $3::time,
			timezone = $4,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query, sub.ID, sub.IsActive, sub.PreferredTime, sub.Timezone).Scan(&sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return mapWriteError(err)
	}
	return nil
}

// ListActiveSubscriptions returns every subscription due for the daily send.
func (r *Repository) ListActiveSubscriptions(ctx context.Context) ([]domain.CatFactSubscription, error) {
	const query = `SELECT ` + subscriptionColumns + ` FROM cat_fact_subscriptions
		WHERE is_active = TRUE
		ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.CatFactSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// RecordCatFactSent bumps the delivery counters after a successful email.
func (r *Repository) RecordCatFactSent(ctx context.Context, subscriptionID int64, sentAt time.Time) error {
	const query = `UPDATE cat_fact_subscriptions
		SET last_sent_at = $2, total_sent = total_sent + 1, updated_at = NOW()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, subscriptionID, sentAt.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanSubscription(row pgx.Row) (*domain.CatFactSubscription, error) {
	var sub domain.CatFactSubscription
	if err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.IsActive,
		&sub.PreferredTime,
		&sub.Timezone,
		&sub.LastSentAt,
		&sub.TotalSent,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}
