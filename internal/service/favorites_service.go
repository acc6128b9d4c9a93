package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atsaeid/weather-wise-api/internal/models"
	appErrors "github.com/atsaeid/weather-wise-api/pkg/errors"
)

type favoriteStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.FavoriteLocation, error)
	Insert(ctx context.Context, favorite *models.FavoriteLocation) error
	Delete(ctx context.Context, userID, locationName string) (bool, error)
	Exists(ctx context.Context, userID, locationName string) (bool, error)
}

type locationGeocoder interface {
	Search(ctx context.Context, query string) (*models.LocationSearchResult, error)
}

// FavoritesService manages per-user saved locations. Names are
// canonicalised through geocoding before persisting, so "london" and
// "London, England, GB" resolve to the same favorite.
type FavoritesService struct {
	store    favoriteStore
	geocoder locationGeocoder
	logger   *zap.Logger
}

// NewFavoritesService constructs a FavoritesService.
func NewFavoritesService(store favoriteStore, geocoder locationGeocoder, logger *zap.Logger) *FavoritesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FavoritesService{store: store, geocoder: geocoder, logger: logger}
}

// List returns the user's favorites, newest first.
func (s *FavoritesService) List(ctx context.Context, userID string) (*models.FavoritesResponse, error) {
	infos, err := s.listInfos(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.FavoritesResponse{Locations: infos}, nil
}

// Add saves a location under its geocoded canonical name and returns
// the updated list. Re-adding an existing favorite succeeds without a
// duplicate entry.
func (s *FavoritesService) Add(ctx context.Context, userID, location string) (*models.FavoriteMutationResponse, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "location name is required")
	}

	result, err := s.geocoder.Search(ctx, location)
	if err != nil {
		return nil, err
	}
	if len(result.Locations) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("location %q not found", location))
	}

	match := result.Locations[0]
	favorite := &models.FavoriteLocation{
		UserID:       userID,
		LocationName: match.Name,
		Latitude:     match.Coordinates.Lat,
		Longitude:    match.Coordinates.Lon,
		SavedAt:      time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, favorite); err != nil {
		return nil, err
	}

	infos, err := s.listInfos(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.FavoriteMutationResponse{Success: true, Locations: infos}, nil
}

// Remove deletes a favorite by its stored name. Success reflects
// whether a row existed; the updated list is returned either way.
func (s *FavoritesService) Remove(ctx context.Context, userID, location string) (*models.FavoriteMutationResponse, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "location name is required")
	}

	removed, err := s.store.Delete(ctx, userID, location)
	if err != nil {
		return nil, err
	}

	infos, err := s.listInfos(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.FavoriteMutationResponse{Success: removed, Locations: infos}, nil
}

// IsFavorite reports whether the user has saved the named location.
func (s *FavoritesService) IsFavorite(ctx context.Context, userID, location string) (bool, error) {
	return s.store.Exists(ctx, userID, location)
}

func (s *FavoritesService) listInfos(ctx context.Context, userID string) ([]models.FavoriteLocationInfo, error) {
	favorites, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	infos := make([]models.FavoriteLocationInfo, 0, len(favorites))
	for _, f := range favorites {
		infos = append(infos, models.FavoriteLocationInfo{
			Name:    f.LocationName,
			SavedAt: f.SavedAt.UTC().Format(time.RFC3339),
		})
	}
	return infos, nil
}
