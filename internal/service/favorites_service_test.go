package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atsaeid/weather-wise-api/internal/models"
	appErrors "github.com/atsaeid/weather-wise-api/pkg/errors"
)

type stubFavoriteStore struct {
	favorites []models.FavoriteLocation
}

func (s *stubFavoriteStore) ListByUser(ctx context.Context, userID string) ([]models.FavoriteLocation, error) {
	var out []models.FavoriteLocation
	for _, f := range s.favorites {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *stubFavoriteStore) Insert(ctx context.Context, favorite *models.FavoriteLocation) error {
	for _, f := range s.favorites {
		if f.UserID == favorite.UserID && f.LocationName == favorite.LocationName {
			return nil
		}
	}
	s.favorites = append(s.favorites, *favorite)
	return nil
}

func (s *stubFavoriteStore) Delete(ctx context.Context, userID, locationName string) (bool, error) {
	for i, f := range s.favorites {
		if f.UserID == userID && f.LocationName == locationName {
			s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubFavoriteStore) Exists(ctx context.Context, userID, locationName string) (bool, error) {
	for _, f := range s.favorites {
		if f.UserID == userID && f.LocationName == locationName {
			return true, nil
		}
	}
	return false, nil
}

type stubGeocoder struct {
	matches []models.Location
}

func (s *stubGeocoder) Search(ctx context.Context, query string) (*models.LocationSearchResult, error) {
	return &models.LocationSearchResult{Locations: s.matches}, nil
}

func TestAddCanonicalisesLocationName(t *testing.T) {
	store := &stubFavoriteStore{}
	geocoder := &stubGeocoder{matches: []models.Location{
		{Name: "London, England, GB", Coordinates: models.Coordinates{Lat: 51.5, Lon: -0.12}},
		{Name: "London, Ontario, CA", Coordinates: models.Coordinates{Lat: 42.98, Lon: -81.24}},
	}}
	svc := NewFavoritesService(store, geocoder, zap.NewNop())

	res, err := svc.Add(context.Background(), "u1", "london")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.Locations, 1)
	assert.Equal(t, "London, England, GB", res.Locations[0].Name)
}

func TestAddIsIdempotent(t *testing.T) {
	store := &stubFavoriteStore{}
	geocoder := &stubGeocoder{matches: []models.Location{{Name: "Paris, FR"}}}
	svc := NewFavoritesService(store, geocoder, zap.NewNop())

	_, err := svc.Add(context.Background(), "u1", "paris")
	require.NoError(t, err)
	res, err := svc.Add(context.Background(), "u1", "paris")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Len(t, res.Locations, 1)
}

func TestAddUnknownLocation(t *testing.T) {
	svc := NewFavoritesService(&stubFavoriteStore{}, &stubGeocoder{}, zap.NewNop())

	_, err := svc.Add(context.Background(), "u1", "atlantis")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAddRequiresName(t *testing.T) {
	svc := NewFavoritesService(&stubFavoriteStore{}, &stubGeocoder{}, zap.NewNop())

	_, err := svc.Add(context.Background(), "u1", "   ")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRemoveReportsMissingRow(t *testing.T) {
	store := &stubFavoriteStore{favorites: []models.FavoriteLocation{
		{UserID: "u1", LocationName: "Paris, FR", SavedAt: time.Now()},
	}}
	svc := NewFavoritesService(store, &stubGeocoder{}, zap.NewNop())

	res, err := svc.Remove(context.Background(), "u1", "Paris, FR")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Locations)

	res, err = svc.Remove(context.Background(), "u1", "Paris, FR")
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestListIsScopedToUser(t *testing.T) {
	store := &stubFavoriteStore{favorites: []models.FavoriteLocation{
		{UserID: "u1", LocationName: "Paris, FR", SavedAt: time.Now()},
		{UserID: "u2", LocationName: "Berlin, DE", SavedAt: time.Now()},
	}}
	svc := NewFavoritesService(store, &stubGeocoder{}, zap.NewNop())

	res, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, res.Locations, 1)
	assert.Equal(t, "Paris, FR", res.Locations[0].Name)
}
