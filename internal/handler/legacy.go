package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"urgency-service/internal/apperr"
	"urgency-service/internal/legacy"
)

// LegacyHandler serves the frozen fixed-schema model. predictor is nil when
// the artifacts could not be loaded.
type LegacyHandler struct {
	predictor *legacy.Predictor
	logger    *zap.Logger
}

func NewLegacyHandler(predictor *legacy.Predictor, logger *zap.Logger) *LegacyHandler {
	return &LegacyHandler{predictor: predictor, logger: logger}
}

func (h *LegacyHandler) RegisterRoutes(r *gin.Engine) {
	r.POST("/predict", h.Predict)
}

func (h *LegacyHandler) Available() bool {
	return h.predictor != nil
}

// Predict classifies a request from the original web form.
func (h *LegacyHandler) Predict(c *gin.Context) {
	if h.predictor == nil {
		writeError(c, fmt.Errorf("%w: legacy model or encoder failed to load", apperr.ErrModelNotReady))
		return
	}

	var req legacy.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", apperr.ErrMalformedRecord, err))
		return
	}

	res, err := h.predictor.Predict(req)
	if err != nil {
		h.logger.Warn("Legacy prediction failed", zap.Error(err))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"urgency":    res.Urgency,
		"confidence": res.Confidence,
		"timestamp":  res.Timestamp,
	})
}
