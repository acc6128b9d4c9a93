package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atsaeid/weather-wise-api/internal/models"
	"github.com/atsaeid/weather-wise-api/internal/service"
	appErrors "github.com/atsaeid/weather-wise-api/pkg/errors"
	"github.com/atsaeid/weather-wise-api/pkg/response"
)

// PushHandler wires HTTP endpoints to the push service.
type PushHandler struct {
	service *service.PushService
}

// NewPushHandler creates a new handler.
func NewPushHandler(svc *service.PushService) *PushHandler {
	return &PushHandler{service: svc}
}

// PublicKey godoc
// @Summary Get VAPID public key
// @Description Returns the key clients need to create push subscriptions
// @Tags Push
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /push/vapid-public-key [get]
func (h *PushHandler) PublicKey(c *gin.Context) {
	res, err := h.service.PublicKey()
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// Subscribe godoc
// @Summary Subscribe to push notifications
// @Description Store or replace the user's web-push subscription
// @Tags Push
// @Accept json
// @Produce json
// @Param payload body models.PushSubscriptionRequest true "Subscription payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /push/subscribe [post]
func (h *PushHandler) Subscribe(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.PushSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid subscription payload"))
		return
	}

	if err := h.service.Subscribe(c.Request.Context(), claims.UserID, &req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Unsubscribe godoc
// @Summary Unsubscribe from push notifications
// @Description Remove the user's stored subscription
// @Tags Push
// @Produce json
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /push/unsubscribe [delete]
func (h *PushHandler) Unsubscribe(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Unsubscribe(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Test godoc
// @Summary Send a test notification
// @Description Deliver a test notification to the user's subscription
// @Tags Push
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /push/test [post]
func (h *PushHandler) Test(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	notification := service.Notification{
		Title: "WeatherWise",
		Body:  "Push notifications are working.",
	}
	if err := h.service.Send(c.Request.Context(), claims.UserID, notification); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"sent": true})
}
