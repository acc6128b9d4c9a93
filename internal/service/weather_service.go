package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atsaeid/weather-wise-api/internal/models"
	"github.com/atsaeid/weather-wise-api/pkg/config"
	appErrors "github.com/atsaeid/weather-wise-api/pkg/errors"
)

type favoriteChecker interface {
	Exists(ctx context.Context, userID, locationName string) (bool, error)
}

// WeatherService aggregates current conditions, reverse geocoding and
// the 5-day forecast from OpenWeatherMap into a single payload.
// Aggregated payloads are cached per coordinate; the per-user favorite
// flag is applied after the cache.
type WeatherService struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	favorites favoriteChecker
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewWeatherService constructs a WeatherService instance.
func NewWeatherService(cfg config.WeatherConfig, favorites favoriteChecker, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *WeatherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WeatherService{
		client:    &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		favorites: favorites,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

// GetByLocation geocodes the query and returns weather for the first
// match, keeping the geocoded name for consistency with search results.
func (s *WeatherService) GetByLocation(ctx context.Context, location, userID string) (*models.WeatherData, error) {
	result, err := s.Search(ctx, location)
	if err != nil {
		return nil, err
	}
	if len(result.Locations) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("location %q not found", location))
	}

	match := result.Locations[0]
	data, err := s.GetByCoordinates(ctx, match.Coordinates.Lat, match.Coordinates.Lon, userID)
	if err != nil {
		return nil, err
	}
	data.Location = match.Name
	return data, nil
}

// GetByCoordinates returns the aggregated weather payload for a point.
func (s *WeatherService) GetByCoordinates(ctx context.Context, lat, lon float64, userID string) (*models.WeatherData, error) {
	cacheKey := fmt.Sprintf("weather:%.4f:%.4f", lat, lon)

	var data models.WeatherData
	if !s.cache.Get(ctx, cacheKey, &data) {
		fetched, err := s.fetchAggregate(ctx, lat, lon)
		if err != nil {
			return nil, err
		}
		data = *fetched
		s.cache.Set(ctx, cacheKey, data, 0)
	}

	if userID != "" && s.favorites != nil {
		fav, err := s.favorites.Exists(ctx, userID, data.Location)
		if err != nil {
			s.logger.Warn("favorite lookup failed", zap.Error(err))
		}
		data.IsFavorite = fav
	} else {
		data.IsFavorite = false
	}

	return &data, nil
}

// Search performs direct geocoding, returning up to five matches.
func (s *WeatherService) Search(ctx context.Context, query string) (*models.LocationSearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "5")

	var matches []owmGeo
	if err := s.getJSON(ctx, "/geo/1.0/direct", params, &matches); err != nil {
		return nil, err
	}

	locations := make([]models.Location, 0, len(matches))
	for _, m := range matches {
		locations = append(locations, models.Location{
			Name:        joinLocationName(m.Name, m.State, m.Country),
			Country:     m.Country,
			Coordinates: models.Coordinates{Lat: m.Lat, Lon: m.Lon},
			Timezone:    offsetLabel(m.Timezone),
		})
	}

	return &models.LocationSearchResult{Locations: locations}, nil
}

func (s *WeatherService) fetchAggregate(ctx context.Context, lat, lon float64) (*models.WeatherData, error) {
	coords := url.Values{}
	coords.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	coords.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	currentParams := cloneValues(coords)
	currentParams.Set("units", "metric")
	var current owmCurrent
	if err := s.getJSON(ctx, "/data/2.5/weather", currentParams, &current); err != nil {
		return nil, err
	}

	// Reverse geocoding is best effort; a coordinate label is good
	// enough when the provider has no name for the point.
	locationName := fmt.Sprintf("Location at (%.2f, %.2f)", lat, lon)
	reverseParams := cloneValues(coords)
	reverseParams.Set("limit", "1")
	var places []owmGeo
	if err := s.getJSON(ctx, "/geo/1.0/reverse", reverseParams, &places); err != nil {
		s.logger.Warn("reverse geocoding failed", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
	} else if len(places) > 0 {
		locationName = joinLocationName(places[0].Name, places[0].State, places[0].Country)
	}

	forecastParams := cloneValues(coords)
	forecastParams.Set("units", "metric")
	var forecast owmForecast
	if err := s.getJSON(ctx, "/data/2.5/forecast", forecastParams, &forecast); err != nil {
		return nil, err
	}

	zone := time.FixedZone("", current.Timezone)

	hourly := forecast.List
	if len(hourly) > 24 {
		hourly = hourly[:24]
	}
	hourlyForecasts := make([]models.HourlyForecast, 0, len(hourly))
	for _, item := range hourly {
		hourlyForecasts = append(hourlyForecasts, models.HourlyForecast{
			Time:          time.Unix(item.Dt, 0).In(zone).Format(time.RFC3339),
			Temperature:   item.Main.Temp,
			Condition:     condition(item.Weather),
			Precipitation: item.Pop * 100,
		})
	}

	return &models.WeatherData{
		Location:        locationName,
		Temperature:     current.Main.Temp,
		Condition:       condition(current.Weather),
		FeelsLike:       current.Main.FeelsLike,
		Humidity:        current.Main.Humidity,
		WindSpeed:       current.Wind.Speed,
		UvIndex:         0, // not available on the free tier
		Pressure:        current.Main.Pressure,
		Timezone:        offsetLabel(current.Timezone),
		LocalTime:       time.Unix(current.Dt, 0).In(zone).Format(time.RFC3339),
		MapLocation:     models.Coordinates{Lat: lat, Lon: lon},
		HourlyForecasts: hourlyForecasts,
		DailyForecasts:  buildDailyForecasts(forecast.List, zone),
	}, nil
}

func (s *WeatherService) getJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	params.Set("appid", s.apiKey)
	endpoint := s.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build weather request")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "weather provider unreachable")
	}
	defer resp.Body.Close()

	if s.metrics != nil {
		s.metrics.ObserveUpstreamRequest("openweathermap", resp.StatusCode, time.Since(start))
	}

	if resp.StatusCode != http.StatusOK {
		return appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("weather provider returned %s", resp.Status))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to parse weather response")
	}
	return nil
}

// buildDailyForecasts groups 3-hour samples by local calendar day, up
// to seven days: max/min temperature, the middle sample's condition,
// and the mean precipitation probability as a percentage.
func buildDailyForecasts(items []owmForecastItem, zone *time.Location) []models.DailyForecast {
	var order []string
	groups := make(map[string][]owmForecastItem)
	for _, item := range items {
		day := time.Unix(item.Dt, 0).In(zone).Format("2006-01-02")
		if _, seen := groups[day]; !seen {
			order = append(order, day)
		}
		groups[day] = append(groups[day], item)
	}
	if len(order) > 7 {
		order = order[:7]
	}

	daily := make([]models.DailyForecast, 0, len(order))
	for _, day := range order {
		group := groups[day]
		high := group[0].Main.TempMax
		low := group[0].Main.TempMin
		var popSum float64
		for _, item := range group {
			if item.Main.TempMax > high {
				high = item.Main.TempMax
			}
			if item.Main.TempMin < low {
				low = item.Main.TempMin
			}
			popSum += item.Pop
		}

		date, _ := time.ParseInLocation("2006-01-02", day, zone)
		daily = append(daily, models.DailyForecast{
			Day:           date.Weekday().String(),
			Date:          date.Format(time.RFC3339),
			HighTemp:      high,
			LowTemp:       low,
			Condition:     condition(group[len(group)/2].Weather),
			Precipitation: popSum / float64(len(group)) * 100,
		})
	}
	return daily
}

func condition(weather []owmWeather) string {
	if len(weather) == 0 {
		return ""
	}
	return weather[0].Description
}

func joinLocationName(name, state, country string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{name, state, country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// offsetLabel renders a UTC offset as a zone label. Offsets are shared
// by multiple zones, so no canonical zone name is guessed.
func offsetLabel(seconds int) string {
	if seconds == 0 {
		return "UTC"
	}
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for key, vals := range v {
		out[key] = append([]string(nil), vals...)
	}
	return out
}

// OpenWeatherMap response payloads.
type owmMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
}

type owmWeather struct {
	Description string `json:"description"`
}

type owmWind struct {
	Speed float64 `json:"speed"`
}

type owmCurrent struct {
	Main     owmMain      `json:"main"`
	Wind     owmWind      `json:"wind"`
	Weather  []owmWeather `json:"weather"`
	Dt       int64        `json:"dt"`
	Timezone int          `json:"timezone"`
}

type owmForecastItem struct {
	Dt      int64        `json:"dt"`
	Main    owmMain      `json:"main"`
	Weather []owmWeather `json:"weather"`
	Pop     float64      `json:"pop"`
}

type owmForecast struct {
	List []owmForecastItem `json:"list"`
}

type owmGeo struct {
	Name     string  `json:"name"`
	State    string  `json:"state"`
	Country  string  `json:"country"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Timezone int     `json:"timezone"`
}
