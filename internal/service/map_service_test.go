package service

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atsaeid/weather-wise-api/internal/models"
	"github.com/atsaeid/weather-wise-api/pkg/config"
)

func newTestMapService(t *testing.T, baseURL, apiKey string) *MapService {
	t.Helper()
	cfg := config.MapConfig{BaseURL: baseURL, APIKey: apiKey, Timeout: 5 * time.Second}
	return NewMapService(cfg, nil, zap.NewNop())
}

func TestGetStaticMapProxiesProvider(t *testing.T) {
	tile := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/staticmap", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Contains(t, r.URL.Query().Get("markers"), "small-red-cutout")
		w.Write(tile)
	}))
	defer srv.Close()
	svc := newTestMapService(t, srv.URL, "test-key")

	res, err := svc.GetStaticMap(context.Background(), models.MapSettings{Latitude: 51.5, Longitude: -0.12})
	require.NoError(t, err)
	assert.False(t, res.IsDefaultMap)
	assert.Equal(t, pngDataURI+base64.StdEncoding.EncodeToString(tile), res.Base64Image)
}

func TestGetStaticMapFallsBackOnProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	svc := newTestMapService(t, srv.URL, "test-key")

	res, err := svc.GetStaticMap(context.Background(), models.MapSettings{Latitude: 51.5, Longitude: -0.12})
	require.NoError(t, err)
	assert.True(t, res.IsDefaultMap)
	require.True(t, strings.HasPrefix(res.Base64Image, pngDataURI))

	// The fallback must be a decodable payload.
	_, err = base64.StdEncoding.DecodeString(strings.TrimPrefix(res.Base64Image, pngDataURI))
	assert.NoError(t, err)
}

func TestGetStaticMapFallsBackWithoutAPIKey(t *testing.T) {
	svc := newTestMapService(t, "http://localhost:0", "")

	res, err := svc.GetStaticMap(context.Background(), models.MapSettings{})
	require.NoError(t, err)
	assert.True(t, res.IsDefaultMap)
	assert.NotEmpty(t, res.Base64Image)
}

func TestNormalizeMapSettings(t *testing.T) {
	s := normalizeMapSettings(models.MapSettings{Latitude: 200, Longitude: -300, ZoomLevel: 40, Width: -1, Height: 99999})
	assert.Equal(t, defaultMapZoom, s.ZoomLevel)
	assert.Equal(t, defaultMapWidth, s.Width)
	assert.Equal(t, defaultMapHeight, s.Height)
	assert.Zero(t, s.Latitude)
	assert.Zero(t, s.Longitude)

	keep := normalizeMapSettings(models.MapSettings{Latitude: 10, Longitude: 20, ZoomLevel: 8, Width: 640, Height: 480})
	assert.Equal(t, 8, keep.ZoomLevel)
	assert.Equal(t, 640, keep.Width)
	assert.Equal(t, 480, keep.Height)
}
