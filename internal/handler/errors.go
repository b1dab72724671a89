package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"urgency-service/internal/apperr"
	"urgency-service/internal/service"
)

// writeError sends the structured error body used by the urgency endpoints.
func writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch {
	case kind == apperr.KindModelNotReady:
		status = http.StatusServiceUnavailable
	case kind == apperr.KindMalformedRecord:
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrTrainingInProgress):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{
		"status":  "error",
		"kind":    kind,
		"message": err.Error(),
	})
}
