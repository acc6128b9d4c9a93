package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atsaeid/weather-wise-api/internal/service"
	appErrors "github.com/atsaeid/weather-wise-api/pkg/errors"
	"github.com/atsaeid/weather-wise-api/pkg/response"
)

// FavoritesHandler wires HTTP endpoints to the favorites service.
type FavoritesHandler struct {
	service *service.FavoritesService
}

// NewFavoritesHandler creates a new handler.
func NewFavoritesHandler(svc *service.FavoritesService) *FavoritesHandler {
	return &FavoritesHandler{service: svc}
}

// List godoc
// @Summary List favorite locations
// @Description Returns the user's saved locations, newest first
// @Tags Favorites
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /favorites [get]
func (h *FavoritesHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.service.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// Add godoc
// @Summary Add favorite location
// @Description Save a location under its geocoded canonical name
// @Tags Favorites
// @Produce json
// @Param location path string true "Location name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /favorites/{location} [post]
func (h *FavoritesHandler) Add(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	location := strings.TrimSpace(c.Param("location"))
	if location == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "location is required"))
		return
	}

	res, err := h.service.Add(c.Request.Context(), claims.UserID, location)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// Remove godoc
// @Summary Remove favorite location
// @Description Delete a saved location by name
// @Tags Favorites
// @Produce json
// @Param location path string true "Location name"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /favorites/{location} [delete]
func (h *FavoritesHandler) Remove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	location := strings.TrimSpace(c.Param("location"))
	if location == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "location is required"))
		return
	}

	res, err := h.service.Remove(c.Request.Context(), claims.UserID, location)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !res.Success {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "favorite not found"))
		return
	}

	response.JSON(c, http.StatusOK, res)
}
