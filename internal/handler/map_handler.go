package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/atsaeid/weather-wise-api/internal/models"
	"github.com/atsaeid/weather-wise-api/internal/service"
	appErrors "github.com/atsaeid/weather-wise-api/pkg/errors"
	"github.com/atsaeid/weather-wise-api/pkg/response"
)

// MapHandler wires HTTP endpoints to the map service.
type MapHandler struct {
	service *service.MapService
}

// NewMapHandler creates a new handler.
func NewMapHandler(svc *service.MapService) *MapHandler {
	return &MapHandler{service: svc}
}

// GetStaticMap godoc
// @Summary Get static map image
// @Description Returns a base64-encoded static map centered on the coordinates
// @Tags Map
// @Produce json
// @Param latitude query number true "Latitude"
// @Param longitude query number true "Longitude"
// @Param zoom query int false "Zoom level (1-18)"
// @Param width query int false "Image width in pixels"
// @Param height query int false "Image height in pixels"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /map/static [get]
func (h *MapHandler) GetStaticMap(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "latitude must be a number"))
		return
	}
	lon, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "longitude must be a number"))
		return
	}

	settings := models.MapSettings{Latitude: lat, Longitude: lon}
	if raw := c.Query("zoom"); raw != "" {
		settings.ZoomLevel, _ = strconv.Atoi(raw)
	}
	if raw := c.Query("width"); raw != "" {
		settings.Width, _ = strconv.Atoi(raw)
	}
	if raw := c.Query("height"); raw != "" {
		settings.Height, _ = strconv.Atoi(raw)
	}

	res, err := h.service.GetStaticMap(c.Request.Context(), settings)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}
