// Package classifier implements the candidate models the trainer chooses from.
// Every model learns from a dense float matrix and integer class labels
// 0..K-1, and once fitted is read-only: Predict and PredictProba may be called
// from many goroutines at once.
package classifier

import (
	"errors"
	"fmt"
)

// Classifier is the capability set shared by every candidate.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	Predict(x []float64) int
	PredictProba(x []float64) []float64
}

// Kind tags a candidate family.
type Kind int

const (
	Linear Kind = iota
	DistanceBased
	TreeEnsembleA
	TreeEnsembleB
)

// Kinds lists the candidate families in declaration order. The order is the
// final tie-break of model selection.
func Kinds() []Kind {
	return []Kind{Linear, DistanceBased, TreeEnsembleA, TreeEnsembleB}
}

// Name is the display name reported to clients.
func (k Kind) Name() string {
	switch k {
	case Linear:
		return "Logistic Regression"
	case DistanceBased:
		return "K-Nearest Neighbors"
	case TreeEnsembleA:
		return "Random Forest"
	case TreeEnsembleB:
		return "Gradient Boosting"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) String() string { return k.Name() }

// Params holds the hyperparameters of every family.
type Params struct {
	Logistic LogisticParams
	KNN      KNNParams
	Forest   ForestParams
	Boosting BoostingParams
}

// DefaultParams mirrors the settings the urgency model was tuned with.
func DefaultParams() Params {
	return Params{
		Logistic: LogisticParams{MaxIter: 500, LearningRate: 0.5, C: 1.0},
		KNN:      KNNParams{K: 5},
		Forest:   ForestParams{NTrees: 150, MaxDepth: 10, Seed: 42},
		Boosting: BoostingParams{NTrees: 100, LearningRate: 0.1, MaxDepth: 3},
	}
}

// New returns an unfitted classifier of kind k.
func New(k Kind, p Params) (Classifier, error) {
	switch k {
	case Linear:
		return NewLogisticRegression(p.Logistic), nil
	case DistanceBased:
		return NewKNN(p.KNN), nil
	case TreeEnsembleA:
		return NewRandomForest(p.Forest), nil
	case TreeEnsembleB:
		return NewGradientBoosting(p.Boosting), nil
	default:
		return nil, fmt.Errorf("unknown classifier kind %d", int(k))
	}
}

var (
	ErrEmptyTrainingSet = errors.New("empty training set")
	ErrNotFitted        = errors.New("classifier not fitted")
)

// validate checks the shape of a training set and returns the number of
// features and classes.
func validate(X [][]float64, y []int) (features, classes int, err error) {
	if len(X) == 0 {
		return 0, 0, ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return 0, 0, fmt.Errorf("%d rows but %d labels", len(X), len(y))
	}
	features = len(X[0])
	for i, row := range X {
		if len(row) != features {
			return 0, 0, fmt.Errorf("row %d has %d features, expected %d", i, len(row), features)
		}
		if y[i] < 0 {
			return 0, 0, fmt.Errorf("row %d has negative label %d", i, y[i])
		}
		if y[i]+1 > classes {
			classes = y[i] + 1
		}
	}
	return features, classes, nil
}

// argmax returns the index of the largest value; the lowest index wins ties.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
