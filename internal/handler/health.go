package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports which prediction modes are available.
func HealthCheck(urgency UrgencyService, legacy *LegacyHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := urgency.Status()
		c.JSON(http.StatusOK, gin.H{
			"status":        "healthy",
			"service":       "urgency-service",
			"dynamic_ready": status.Ready,
			"dynamic_model": status.Model,
			"legacy_ready":  legacy.Available(),
		})
	}
}
