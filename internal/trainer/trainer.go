// Package trainer fits the candidate classifiers on a stratified split and
// selects the best one.
package trainer

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"urgency-service/internal/apperr"
	"urgency-service/internal/classifier"
	"urgency-service/internal/evaluation"
	"urgency-service/internal/models"
)

// Config controls the split and the candidate set.
type Config struct {
	TestSize    float64
	Seed        int64
	Params      classifier.Params
	Kinds       []classifier.Kind // declaration order; defaults to classifier.Kinds()
	Parallelism int               // concurrent fits; defaults to GOMAXPROCS
}

// DefaultConfig is an 80/20 split seeded with 42 over every candidate family.
func DefaultConfig() Config {
	return Config{
		TestSize: 0.2,
		Seed:     42,
		Params:   classifier.DefaultParams(),
		Kinds:    classifier.Kinds(),
	}
}

// Candidate is one fitted and scored model.
type Candidate struct {
	Kind       classifier.Kind
	Name       string
	Model      classifier.Classifier
	Report     evaluation.Report
	WeightedF1 float64
	HighF1     float64
	FitTime    time.Duration
	Err        error
}

// Result is the outcome of a selection run. Ranked holds every successful
// candidate best first, followed by the failed ones in declaration order.
// Only Selected keeps its fitted model.
type Result struct {
	Selected  Candidate
	Ranked    []Candidate
	TrainRows int
	TestRows  int
}

type Selector struct {
	cfg    Config
	logger *zap.Logger

	newClassifier func(classifier.Kind, classifier.Params) (classifier.Classifier, error)
}

func NewSelector(cfg Config, logger *zap.Logger) *Selector {
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = classifier.Kinds()
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = runtime.GOMAXPROCS(0)
	}
	return &Selector{
		cfg:           cfg,
		logger:        logger,
		newClassifier: classifier.New,
	}
}

// Select splits X/y, fits every candidate on the train partition and ranks
// them on the test partition.
func (s *Selector) Select(ctx context.Context, X [][]float64, y []int) (*Result, error) {
	if len(X) != len(y) {
		return nil, fmt.Errorf("%d rows but %d labels", len(X), len(y))
	}
	trainIdx, testIdx, err := evaluation.StratifiedSplit(y, s.cfg.TestSize, s.cfg.Seed)
	if err != nil {
		return nil, err
	}
	XTrain, yTrain := evaluation.Rows(X, trainIdx), evaluation.Labels(y, trainIdx)
	XTest, yTest := evaluation.Rows(X, testIdx), evaluation.Labels(y, testIdx)

	candidates := make([]Candidate, len(s.cfg.Kinds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for i, kind := range s.cfg.Kinds {
		i, kind := i, kind
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Fit failures stay on the candidate; only cancellation stops the group.
			candidates[i] = s.fitAndScore(kind, XTrain, yTrain, XTest, yTest)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ok, failed []Candidate
	for _, c := range candidates {
		if c.Err != nil {
			s.logger.Warn("Candidate failed to train", zap.String("model", c.Name), zap.Error(c.Err))
			failed = append(failed, c)
			continue
		}
		s.logger.Info("Candidate scored",
			zap.String("model", c.Name),
			zap.Float64("weighted_f1", c.WeightedF1),
			zap.Float64("high_f1", c.HighF1),
			zap.Duration("fit_time", c.FitTime))
		ok = append(ok, c)
	}
	if len(ok) == 0 {
		return nil, fmt.Errorf("%w: all %d candidates failed", apperr.ErrNoCandidatesTrained, len(candidates))
	}

	ranked := Rank(ok)
	for i := 1; i < len(ranked); i++ {
		ranked[i].Model = nil
	}
	result := &Result{
		Selected:  ranked[0],
		Ranked:    append(ranked, failed...),
		TrainRows: len(trainIdx),
		TestRows:  len(testIdx),
	}
	s.logger.Info("Model selected",
		zap.String("model", result.Selected.Name),
		zap.Float64("weighted_f1", result.Selected.WeightedF1),
		zap.Int("train_rows", result.TrainRows),
		zap.Int("test_rows", result.TestRows))
	return result, nil
}

func (s *Selector) fitAndScore(kind classifier.Kind, XTrain [][]float64, yTrain []int, XTest [][]float64, yTest []int) Candidate {
	c := Candidate{Kind: kind, Name: kind.Name()}
	model, err := s.newClassifier(kind, s.cfg.Params)
	if err != nil {
		c.Err = err
		return c
	}
	start := time.Now()
	if err := model.Fit(XTrain, yTrain); err != nil {
		c.Err = err
		return c
	}
	c.FitTime = time.Since(start)

	preds := make([]int, len(XTest))
	for i, row := range XTest {
		preds[i] = model.Predict(row)
	}
	c.Model = model
	c.Report = evaluation.Evaluate(yTest, preds, models.NumSeverities)
	c.WeightedF1 = c.Report.WeightedF1
	c.HighF1 = c.Report.ClassF1(int(models.High))
	return c
}

// Rank orders candidates by weighted F1, then High-severity F1, both
// descending. Candidates equal on both keep their input order.
func Rank(candidates []Candidate) []Candidate {
	ranked := append([]Candidate(nil), candidates...)
	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].WeightedF1 != ranked[b].WeightedF1 {
			return ranked[a].WeightedF1 > ranked[b].WeightedF1
		}
		return ranked[a].HighF1 > ranked[b].HighF1
	})
	return ranked
}
