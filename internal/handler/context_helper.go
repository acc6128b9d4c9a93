package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/atsaeid/weather-wise-api/internal/middleware"
	"github.com/atsaeid/weather-wise-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.AccessClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.AccessClaims)
	if !ok {
		return nil
	}
	return claims
}

// userIDFromContext returns the authenticated user's ID, or "" for
// anonymous requests.
func userIDFromContext(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return ""
	}
	return claims.UserID
}
