package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atsaeid/weather-wise-api/pkg/config"
	appErrors "github.com/atsaeid/weather-wise-api/pkg/errors"
)

type stubFavorites struct {
	saved map[string]bool
}

func (s *stubFavorites) Exists(ctx context.Context, userID, locationName string) (bool, error) {
	return s.saved[locationName], nil
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/data/2.5/weather", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"main": {"temp": 18.5, "feels_like": 17.2, "pressure": 1012, "humidity": 64},
			"wind": {"speed": 4.1},
			"weather": [{"description": "scattered clouds"}],
			"dt": 1700000000,
			"timezone": 3600
		}`))
	})
	mux.HandleFunc("/geo/1.0/reverse", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name": "London", "state": "England", "country": "GB", "lat": 51.5, "lon": -0.12}]`))
	})
	mux.HandleFunc("/geo/1.0/direct", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name": "London", "state": "England", "country": "GB", "lat": 51.5, "lon": -0.12},
			{"name": "London", "state": "Ontario", "country": "CA", "lat": 42.98, "lon": -81.24}
		]`))
	})
	mux.HandleFunc("/data/2.5/forecast", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Two samples on one day, one on the next.
		w.Write([]byte(`{"list": [
			{"dt": 1699959600, "main": {"temp": 18.5, "temp_min": 12.0, "temp_max": 19.0}, "weather": [{"description": "scattered clouds"}], "pop": 0.2},
			{"dt": 1699970400, "main": {"temp": 16.0, "temp_min": 11.0, "temp_max": 17.0}, "weather": [{"description": "light rain"}], "pop": 0.6},
			{"dt": 1700046000, "main": {"temp": 14.0, "temp_min": 9.0, "temp_max": 15.0}, "weather": [{"description": "overcast"}], "pop": 0.1}
		]}`))
	})
	return httptest.NewServer(mux)
}

func newTestWeatherService(t *testing.T, baseURL string, favorites *stubFavorites) *WeatherService {
	t.Helper()
	cfg := config.WeatherConfig{BaseURL: baseURL, APIKey: "test-key", Timeout: 5 * time.Second}
	return NewWeatherService(cfg, favorites, nil, nil, zap.NewNop())
}

func TestSearchReturnsJoinedNames(t *testing.T) {
	srv := newUpstream(t)
	defer srv.Close()
	svc := newTestWeatherService(t, srv.URL, nil)

	res, err := svc.Search(context.Background(), "London")
	require.NoError(t, err)
	require.Len(t, res.Locations, 2)
	assert.Equal(t, "London, England, GB", res.Locations[0].Name)
	assert.Equal(t, "GB", res.Locations[0].Country)
	assert.InDelta(t, 51.5, res.Locations[0].Coordinates.Lat, 0.001)
}

func TestGetByCoordinatesAggregates(t *testing.T) {
	srv := newUpstream(t)
	defer srv.Close()
	svc := newTestWeatherService(t, srv.URL, nil)

	data, err := svc.GetByCoordinates(context.Background(), 51.5, -0.12, "")
	require.NoError(t, err)

	assert.Equal(t, "London, England, GB", data.Location)
	assert.InDelta(t, 18.5, data.Temperature, 0.001)
	assert.Equal(t, "scattered clouds", data.Condition)
	assert.Equal(t, "UTC+01:00", data.Timezone)
	assert.False(t, data.IsFavorite)
	assert.Len(t, data.HourlyForecasts, 3)

	require.Len(t, data.DailyForecasts, 2)
	first := data.DailyForecasts[0]
	assert.InDelta(t, 19.0, first.HighTemp, 0.001)
	assert.InDelta(t, 11.0, first.LowTemp, 0.001)
	assert.InDelta(t, 40.0, first.Precipitation, 0.001)
}

func TestGetByCoordinatesMarksFavorite(t *testing.T) {
	srv := newUpstream(t)
	defer srv.Close()
	favorites := &stubFavorites{saved: map[string]bool{"London, England, GB": true}}
	svc := newTestWeatherService(t, srv.URL, favorites)

	data, err := svc.GetByCoordinates(context.Background(), 51.5, -0.12, "u1")
	require.NoError(t, err)
	assert.True(t, data.IsFavorite)

	anonymous, err := svc.GetByCoordinates(context.Background(), 51.5, -0.12, "")
	require.NoError(t, err)
	assert.False(t, anonymous.IsFavorite)
}

func TestGetByLocationUsesFirstMatch(t *testing.T) {
	srv := newUpstream(t)
	defer srv.Close()
	svc := newTestWeatherService(t, srv.URL, nil)

	data, err := svc.GetByLocation(context.Background(), "london", "")
	require.NoError(t, err)
	assert.Equal(t, "London, England, GB", data.Location)
}

func TestGetByLocationUnknownLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	svc := newTestWeatherService(t, srv.URL, nil)

	_, err := svc.GetByLocation(context.Background(), "atlantis", "")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestUpstreamFailureSurfacesAsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	svc := newTestWeatherService(t, srv.URL, nil)

	_, err := svc.GetByCoordinates(context.Background(), 51.5, -0.12, "")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
}

func TestOffsetLabel(t *testing.T) {
	assert.Equal(t, "UTC", offsetLabel(0))
	assert.Equal(t, "UTC+01:00", offsetLabel(3600))
	assert.Equal(t, "UTC+05:30", offsetLabel(19800))
	assert.Equal(t, "UTC-08:00", offsetLabel(-28800))
}

func TestJoinLocationNameSkipsEmptyParts(t *testing.T) {
	assert.Equal(t, "London, England, GB", joinLocationName("London", "England", "GB"))
	assert.Equal(t, "Paris, FR", joinLocationName("Paris", "", "FR"))
	assert.Equal(t, "Somewhere", joinLocationName("Somewhere", "", ""))
}
