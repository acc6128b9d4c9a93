package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/atsaeid/weather-wise-api/internal/models"
)

// FavoriteRepository provides database access for favorite locations.
type FavoriteRepository struct {
	db *sqlx.DB
}

// NewFavoriteRepository creates a new instance of FavoriteRepository.
func NewFavoriteRepository(db *sqlx.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// ListByUser returns a user's favorites, newest first.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]models.FavoriteLocation, error) {
	const query = `SELECT id, user_id, location_name, latitude, longitude, saved_at FROM favorite_locations WHERE user_id = $1 ORDER BY saved_at DESC`
	var favorites []models.FavoriteLocation
	if err := r.db.SelectContext(ctx, &favorites, query, userID); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favorites, nil
}

// Insert adds a favorite. Saving an already-saved location is a no-op;
// the (user_id, location_name) unique constraint absorbs the race.
func (r *FavoriteRepository) Insert(ctx context.Context, favorite *models.FavoriteLocation) error {
	if favorite.ID == "" {
		favorite.ID = uuid.NewString()
	}
	if favorite.SavedAt.IsZero() {
		favorite.SavedAt = time.Now().UTC()
	}
	const query = `INSERT INTO favorite_locations (id, user_id, location_name, latitude, longitude, saved_at) VALUES (:id, :user_id, :location_name, :latitude, :longitude, :saved_at) ON CONFLICT (user_id, location_name) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, favorite); err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

// Delete removes a favorite and reports whether a row existed.
func (r *FavoriteRepository) Delete(ctx context.Context, userID, locationName string) (bool, error) {
	const query = `DELETE FROM favorite_locations WHERE user_id = $1 AND location_name = $2`
	res, err := r.db.ExecContext(ctx, query, userID, locationName)
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	return n > 0, nil
}

// Exists reports whether the user saved the named location.
func (r *FavoriteRepository) Exists(ctx context.Context, userID, locationName string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM favorite_locations WHERE user_id = $1 AND location_name = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, locationName); err != nil {
		return false, fmt.Errorf("favorite exists: %w", err)
	}
	return exists, nil
}
