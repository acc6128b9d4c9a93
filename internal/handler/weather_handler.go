package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atsaeid/weather-wise-api/internal/service"
	appErrors "github.com/atsaeid/weather-wise-api/pkg/errors"
	"github.com/atsaeid/weather-wise-api/pkg/response"
)

// WeatherHandler wires HTTP endpoints to the weather service.
type WeatherHandler struct {
	service *service.WeatherService
}

// NewWeatherHandler creates a new handler.
func NewWeatherHandler(svc *service.WeatherService) *WeatherHandler {
	return &WeatherHandler{service: svc}
}

// GetByCoordinates godoc
// @Summary Get weather by coordinates
// @Description Aggregated current conditions plus hourly and daily forecasts
// @Tags Weather
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /weather/coordinates [get]
func (h *WeatherHandler) GetByCoordinates(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "lat must be a number between -90 and 90"))
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "lon must be a number between -180 and 180"))
		return
	}

	data, err := h.service.GetByCoordinates(c.Request.Context(), lat, lon, userIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, data)
}

// Search godoc
// @Summary Search locations
// @Description Geocode a query into up to five location matches
// @Tags Weather
// @Produce json
// @Param query query string true "Location query"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /weather/search [get]
func (h *WeatherHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "query is required"))
		return
	}

	result, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result)
}

// GetByLocation godoc
// @Summary Get weather by location name
// @Description Geocode the name and return weather for the first match
// @Tags Weather
// @Produce json
// @Param location path string true "Location name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /weather/{location} [get]
func (h *WeatherHandler) GetByLocation(c *gin.Context) {
	location := strings.TrimSpace(c.Param("location"))
	if location == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "location is required"))
		return
	}

	data, err := h.service.GetByLocation(c.Request.Context(), location, userIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, data)
}
