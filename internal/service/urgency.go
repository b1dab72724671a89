package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"urgency-service/internal/apperr"
	"urgency-service/internal/classifier"
	"urgency-service/internal/config"
	"urgency-service/internal/dataset"
	"urgency-service/internal/encoding"
	"urgency-service/internal/models"
	"urgency-service/internal/noise"
	"urgency-service/internal/schema"
	"urgency-service/internal/trainer"
)

var ErrTrainingInProgress = errors.New("training already in progress")

// RunRecorder persists training run metrics.
type RunRecorder interface {
	CreateRun(ctx context.Context, run *models.TrainingRun) error
	FinishRun(ctx context.Context, run *models.TrainingRun) error
}

// Snapshot is everything one training run produced. It is never modified after
// it is published, so readers may hold on to it for as long as they like.
type Snapshot struct {
	RunID     string
	ModelName string
	Model     classifier.Classifier
	Contract  *encoding.Contract
	Raw       *dataset.Table
	Scores    []models.CandidateScore
	TrainedAt time.Time
}

// Prediction is the answer to one dynamic prediction request.
type Prediction struct {
	Urgency    string          `json:"urgency"`
	Severity   models.Severity `json:"-"`
	Confidence float64         `json:"confidence"`
	Model      string          `json:"model"`
	RunID      string          `json:"run_id"`
}

// SchemaInfo is the input form description plus the model it feeds.
type SchemaInfo struct {
	Model    string         `json:"model"`
	Features []schema.Field `json:"features"`
}

// Status reports whether the dynamic model is ready.
type Status struct {
	Ready         bool      `json:"ready"`
	Model         string    `json:"model,omitempty"`
	RunID         string    `json:"run_id,omitempty"`
	ContractWidth int       `json:"contract_width,omitempty"`
	TrainedAt     time.Time `json:"trained_at,omitempty"`
}

// Urgency trains the dynamic urgency model and serves predictions from the
// current snapshot.
type Urgency struct {
	cfg    config.TrainingConfig
	runs   RunRecorder
	logger *zap.Logger

	current atomic.Pointer[Snapshot]
	trainMu sync.Mutex

	newSource func(seed int64) noise.Source
	now       func() time.Time
}

// NewUrgency creates the service in the uninitialized state. runs may be nil.
func NewUrgency(cfg config.TrainingConfig, runs RunRecorder, logger *zap.Logger) *Urgency {
	return &Urgency{
		cfg:       cfg,
		runs:      runs,
		logger:    logger,
		newSource: noise.NewSource,
		now:       time.Now,
	}
}

// Train runs the full pipeline and, on success, replaces the current snapshot
// in one step. On failure the current snapshot, if any, stays in place.
func (s *Urgency) Train(ctx context.Context) (*Snapshot, error) {
	if !s.trainMu.TryLock() {
		return nil, ErrTrainingInProgress
	}
	defer s.trainMu.Unlock()

	run := &models.TrainingRun{
		ID:        uuid.NewString(),
		Status:    models.RunStatusRunning,
		DataPath:  s.cfg.DataPath,
		StartedAt: s.now(),
	}
	s.recordStart(ctx, run)

	snap, err := s.train(ctx, run)

	finished := s.now()
	run.FinishedAt = &finished
	if err != nil {
		run.Status = models.RunStatusFailed
		run.ErrorMessage = err.Error()
		s.recordFinish(ctx, run)
		s.logger.Error("Training failed",
			zap.String("run_id", run.ID),
			zap.String("kind", string(apperr.KindOf(err))),
			zap.Error(err))
		return nil, err
	}
	run.Status = models.RunStatusSucceeded
	s.recordFinish(ctx, run)

	s.current.Store(snap)
	s.logger.Info("Dynamic urgency model ready",
		zap.String("run_id", run.ID),
		zap.String("model", snap.ModelName),
		zap.Int("rows", run.Rows),
		zap.Int("contract_width", snap.Contract.Width()))
	return snap, nil
}

func (s *Urgency) train(ctx context.Context, run *models.TrainingRun) (*Snapshot, error) {
	table, labels, err := dataset.Load(s.cfg.DataPath, dataset.Options{
		LabelColumn:        s.cfg.LabelColumn,
		DropColumns:        s.cfg.DropColumns,
		CategoricalColumns: s.cfg.CategoricalColumns,
	})
	if err != nil {
		return nil, err
	}
	run.Rows = table.Len()

	perturbed, err := noise.Perturb(labels, s.cfg.Noise(), s.newSource(s.cfg.NoiseSeed))
	if err != nil {
		return nil, fmt.Errorf("label noise: %w", err)
	}
	run.NoisedLabels = len(perturbed.Changed)

	X, contract, err := encoding.Encode(table, encoding.CategoricalColumns(table))
	if err != nil {
		return nil, err
	}
	run.ContractWidth = contract.Width()

	y := make([]int, len(perturbed.Labels))
	for i, l := range perturbed.Labels {
		y[i] = int(l)
	}

	selector := trainer.NewSelector(trainer.Config{
		TestSize:    s.cfg.TestSize,
		Seed:        s.cfg.SplitSeed,
		Params:      s.cfg.ClassifierParams(),
		Parallelism: s.cfg.Parallelism,
	}, s.logger.With(zap.String("run_id", run.ID)))
	result, err := selector.Select(ctx, X, y)
	if err != nil {
		return nil, err
	}

	scores := make([]models.CandidateScore, len(result.Ranked))
	for i, c := range result.Ranked {
		scores[i] = models.CandidateScore{
			RunID:      run.ID,
			Rank:       i + 1,
			Name:       c.Name,
			WeightedF1: c.WeightedF1,
			HighF1:     c.HighF1,
		}
		if c.Err != nil {
			scores[i].FitError = c.Err.Error()
		}
	}
	run.SelectedModel = result.Selected.Name
	run.Candidates = scores

	return &Snapshot{
		RunID:     run.ID,
		ModelName: result.Selected.Name,
		Model:     result.Selected.Model,
		Contract:  contract,
		Raw:       table,
		Scores:    scores,
		TrainedAt: s.now(),
	}, nil
}

func (s *Urgency) recordStart(ctx context.Context, run *models.TrainingRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.CreateRun(ctx, run); err != nil {
		s.logger.Warn("Failed to record training run", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func (s *Urgency) recordFinish(ctx context.Context, run *models.TrainingRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.FinishRun(ctx, run); err != nil {
		s.logger.Warn("Failed to update training run", zap.String("run_id", run.ID), zap.Error(err))
	}
}

// Snapshot returns the current snapshot, or nil before the first successful
// training run.
func (s *Urgency) Snapshot() *Snapshot {
	return s.current.Load()
}

// Status describes the current snapshot.
func (s *Urgency) Status() Status {
	snap := s.current.Load()
	if snap == nil {
		return Status{}
	}
	return Status{
		Ready:         true,
		Model:         snap.ModelName,
		RunID:         snap.RunID,
		ContractWidth: snap.Contract.Width(),
		TrainedAt:     snap.TrainedAt,
	}
}

// Schema describes the raw input fields of the current snapshot.
func (s *Urgency) Schema() (*SchemaInfo, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, notReady()
	}
	return &SchemaInfo{
		Model:    snap.ModelName,
		Features: schema.Describe(snap.Raw),
	}, nil
}

// Predict aligns record onto the current contract and classifies it.
func (s *Urgency) Predict(record map[string]any) (*Prediction, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, notReady()
	}
	vec, err := snap.Contract.Align(record)
	if err != nil {
		return nil, err
	}
	probs := snap.Model.PredictProba(vec)
	if len(probs) == 0 {
		return nil, fmt.Errorf("model %s returned no class probabilities", snap.ModelName)
	}
	// The class is the first most probable one, so it always agrees with
	// the confidence reported beside it.
	class := floats.MaxIdx(probs)
	severity := models.Severity(class)
	confidence := probs[class]
	return &Prediction{
		Urgency:    severity.String(),
		Severity:   severity,
		Confidence: confidence,
		Model:      snap.ModelName,
		RunID:      snap.RunID,
	}, nil
}

func notReady() error {
	return fmt.Errorf("%w: dynamic urgency model not initialized, ensure ML_DATA_PATH points to a CSV dataset", apperr.ErrModelNotReady)
}
