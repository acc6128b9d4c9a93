package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/atsaeid/weather-wise-api/internal/models"
)

// PushRepository is a keyed durable store for web-push subscriptions,
// one row per user.
type PushRepository struct {
	db *sqlx.DB
}

// NewPushRepository creates a new instance of PushRepository.
func NewPushRepository(db *sqlx.DB) *PushRepository {
	return &PushRepository{db: db}
}

// Upsert stores or replaces the subscription for a user.
func (r *PushRepository) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	const query = `INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth, created_at, updated_at)
		VALUES (:user_id, :endpoint, :p256dh, :auth, :created_at, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET endpoint = EXCLUDED.endpoint, p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("upsert push subscription: %w", err)
	}
	return nil
}

// FindByUser returns the stored subscription for a user.
func (r *PushRepository) FindByUser(ctx context.Context, userID string) (*models.PushSubscription, error) {
	const query = `SELECT user_id, endpoint, p256dh, auth, created_at, updated_at FROM push_subscriptions WHERE user_id = $1 LIMIT 1`
	var sub models.PushSubscription
	if err := r.db.GetContext(ctx, &sub, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find push subscription: %w", err)
	}
	return &sub, nil
}

// Delete removes the subscription for a user, if any.
func (r *PushRepository) Delete(ctx context.Context, userID string) error {
	const query = `DELETE FROM push_subscriptions WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}
