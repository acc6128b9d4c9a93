package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atsaeid/weather-wise-api/internal/models"
	"github.com/atsaeid/weather-wise-api/pkg/config"
)

const (
	defaultMapZoom   = 12
	defaultMapWidth  = 400
	defaultMapHeight = 300
	maxMapDimension  = 1280
)

// MapService proxies LocationIQ static map tiles as base64 payloads.
// When the provider is unavailable or unconfigured it serves a locally
// generated placeholder so the client always gets an image.
type MapService struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	metrics  *MetricsService
	logger   *zap.Logger
	fallback string
}

// NewMapService constructs a MapService. The placeholder image is
// rendered once at startup.
func NewMapService(cfg config.MapConfig, metrics *MetricsService, logger *zap.Logger) *MapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MapService{
		client:   &http.Client{Timeout: timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		metrics:  metrics,
		logger:   logger,
		fallback: renderFallbackMap(defaultMapWidth, defaultMapHeight),
	}
}

// GetStaticMap fetches a static map image for the given settings.
func (s *MapService) GetStaticMap(ctx context.Context, settings models.MapSettings) (*models.StaticMapResponse, error) {
	settings = normalizeMapSettings(settings)

	if s.apiKey == "" {
		return &models.StaticMapResponse{Base64Image: s.fallback, IsDefaultMap: true}, nil
	}

	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("center", fmt.Sprintf("%f,%f", settings.Latitude, settings.Longitude))
	params.Set("zoom", strconv.Itoa(settings.ZoomLevel))
	params.Set("size", fmt.Sprintf("%dx%d", settings.Width, settings.Height))
	params.Set("markers", fmt.Sprintf("icon:small-red-cutout|%f,%f", settings.Latitude, settings.Longitude))
	params.Set("format", "png")

	endpoint := s.baseURL + "/v3/staticmap?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("static map fetch failed", zap.Error(err))
		return &models.StaticMapResponse{Base64Image: s.fallback, IsDefaultMap: true}, nil
	}
	defer resp.Body.Close()

	if s.metrics != nil {
		s.metrics.ObserveUpstreamRequest("locationiq", resp.StatusCode, time.Since(start))
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("static map provider returned non-OK status",
			zap.Int("status", resp.StatusCode),
			zap.Float64("lat", settings.Latitude),
			zap.Float64("lon", settings.Longitude))
		return &models.StaticMapResponse{Base64Image: s.fallback, IsDefaultMap: true}, nil
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Warn("static map read failed", zap.Error(err))
		return &models.StaticMapResponse{Base64Image: s.fallback, IsDefaultMap: true}, nil
	}

	return &models.StaticMapResponse{
		Base64Image:  pngDataURI + base64.StdEncoding.EncodeToString(payload),
		IsDefaultMap: false,
	}, nil
}

const pngDataURI = "data:image/png;base64,"

func normalizeMapSettings(s models.MapSettings) models.MapSettings {
	if s.ZoomLevel < 1 || s.ZoomLevel > 18 {
		s.ZoomLevel = defaultMapZoom
	}
	if s.Width <= 0 || s.Width > maxMapDimension {
		s.Width = defaultMapWidth
	}
	if s.Height <= 0 || s.Height > maxMapDimension {
		s.Height = defaultMapHeight
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		s.Latitude = 0
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		s.Longitude = 0
	}
	return s
}

// renderFallbackMap draws a neutral grid placeholder and returns it as
// a base64 PNG.
func renderFallbackMap(width, height int) string {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	background := color.RGBA{R: 0xE8, G: 0xEC, B: 0xF0, A: 0xFF}
	gridLine := color.RGBA{R: 0xC5, G: 0xCD, B: 0xD6, A: 0xFF}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x%40 == 0 || y%40 == 0 {
				img.Set(x, y, gridLine)
			} else {
				img.Set(x, y, background)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return ""
	}
	return pngDataURI + base64.StdEncoding.EncodeToString(buf.Bytes())
}
