package models

import "time"

// FavoriteLocation is a saved location owned by a user.
type FavoriteLocation struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	LocationName string    `db:"location_name" json:"location_name"`
	Latitude     float64   `db:"latitude" json:"latitude"`
	Longitude    float64   `db:"longitude" json:"longitude"`
	SavedAt      time.Time `db:"saved_at" json:"saved_at"`
}

// FavoriteLocationInfo is the client-facing favorite entry.
type FavoriteLocationInfo struct {
	Name    string `json:"name"`
	SavedAt string `json:"savedAt"`
}

// FavoritesResponse lists a user's favorites, newest first.
type FavoritesResponse struct {
	Locations []FavoriteLocationInfo `json:"locations"`
}

// FavoriteMutationResponse reports an add/remove outcome together with
// the resulting list.
type FavoriteMutationResponse struct {
	Success   bool                   `json:"success"`
	Locations []FavoriteLocationInfo `json:"locations"`
}
