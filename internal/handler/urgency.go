package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"urgency-service/internal/apperr"
	"urgency-service/internal/middleware"
	"urgency-service/internal/models"
	"urgency-service/internal/notify"
	"urgency-service/internal/service"
)

type UrgencyService interface {
	Train(ctx context.Context) (*service.Snapshot, error)
	Status() service.Status
	Schema() (*service.SchemaInfo, error)
	Predict(record map[string]any) (*service.Prediction, error)
}

type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]models.TrainingRun, error)
}

// UrgencyHandler serves the dynamically trained urgency model.
type UrgencyHandler struct {
	urgency  UrgencyService
	runs     RunLister
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewUrgencyHandler(urgency UrgencyService, runs RunLister, notifier notify.Notifier, logger *zap.Logger) *UrgencyHandler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &UrgencyHandler{urgency: urgency, runs: runs, notifier: notifier, logger: logger}
}

// RegisterRoutes registers the urgency routes. auth guards retraining.
func (h *UrgencyHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	api := r.Group("/api")
	{
		api.GET("/urgency/schema", h.GetSchema)
		api.GET("/urgency/status", h.GetStatus)
		api.GET("/urgency/runs", h.ListRuns)
		api.POST("/predict_urgency", h.PredictUrgency)
		api.POST("/urgency/retrain", auth, h.Retrain)
	}
}

// GetSchema describes the input form derived from the training data.
func (h *UrgencyHandler) GetSchema(c *gin.Context) {
	info, err := h.urgency.Schema()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"model":    info.Model,
		"features": info.Features,
	})
}

func (h *UrgencyHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.urgency.Status())
}

// PredictUrgency classifies a record keyed by the raw training column names.
func (h *UrgencyHandler) PredictUrgency(c *gin.Context) {
	var record map[string]any
	if err := c.ShouldBindJSON(&record); err != nil {
		writeError(c, fmt.Errorf("%w: body must be a JSON object: %v", apperr.ErrMalformedRecord, err))
		return
	}

	pred, err := h.urgency.Predict(record)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			h.logger.Error("Dynamic prediction failed", zap.Error(err))
		}
		writeError(c, err)
		return
	}

	if pred.Severity == models.High {
		alert := notify.Alert{
			Urgency:    pred.Urgency,
			Model:      pred.Model,
			Confidence: pred.Confidence,
			RunID:      pred.RunID,
			Record:     record,
		}
		if err := h.notifier.Notify(c.Request.Context(), alert); err != nil {
			h.logger.Warn("Failed to queue urgency alert", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"urgency":    pred.Urgency,
		"model":      pred.Model,
		"confidence": pred.Confidence,
	})
}

// Retrain reruns the pipeline and swaps in the new model on success.
func (h *UrgencyHandler) Retrain(c *gin.Context) {
	h.logger.Info("Retrain requested", zap.Int64("user_id", c.GetInt64(middleware.ContextUserID)))
	// A client that disconnects must not abort a run that is already recording.
	snap, err := h.urgency.Train(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "success",
		"run_id":         snap.RunID,
		"model":          snap.ModelName,
		"contract_width": snap.Contract.Width(),
		"candidates":     snap.Scores,
	})
}

// ListRuns returns recent training runs, newest first.
func (h *UrgencyHandler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []models.TrainingRun{}})
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	runs, err := h.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list training runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list training runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
