package classifier

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var centers = [][]float64{{0, 0}, {6, 6}, {12, 0}}

// clusters returns n points per class scattered around well separated centers.
func clusters(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	var X [][]float64
	var y []int
	for k, c := range centers {
		for i := 0; i < n; i++ {
			X = append(X, []float64{c[0] + rng.NormFloat64(), c[1] + rng.NormFloat64()})
			y = append(y, k)
		}
	}
	return X, y
}

func fastParams() Params {
	p := DefaultParams()
	p.Forest.NTrees = 25
	p.Boosting.NTrees = 30
	p.Logistic.MaxIter = 200
	return p
}

func TestKindsOrderAndNames(t *testing.T) {
	assert.Equal(t, []Kind{Linear, DistanceBased, TreeEnsembleA, TreeEnsembleB}, Kinds())
	assert.Equal(t, "Logistic Regression", Linear.Name())
	assert.Equal(t, "K-Nearest Neighbors", DistanceBased.Name())
	assert.Equal(t, "Random Forest", TreeEnsembleA.Name())
	assert.Equal(t, "Gradient Boosting", TreeEnsembleB.Name())

	_, err := New(Kind(99), DefaultParams())
	assert.Error(t, err)
}

func TestEveryKindSeparatesClusters(t *testing.T) {
	X, y := clusters(30, 1)
	for _, kind := range Kinds() {
		t.Run(kind.Name(), func(t *testing.T) {
			m, err := New(kind, fastParams())
			require.NoError(t, err)
			require.NoError(t, m.Fit(X, y))

			for k, c := range centers {
				assert.Equal(t, k, m.Predict(c), "center of class %d", k)
				probs := m.PredictProba(c)
				require.Len(t, probs, len(centers))
				sum := 0.0
				for _, p := range probs {
					assert.GreaterOrEqual(t, p, 0.0)
					sum += p
				}
				assert.InDelta(t, 1.0, sum, 1e-9)
				assert.Equal(t, k, argmax(probs))
			}
		})
	}
}

func TestFitIsDeterministic(t *testing.T) {
	X, y := clusters(20, 3)
	query := []float64{6, 3}
	for _, kind := range Kinds() {
		a, _ := New(kind, fastParams())
		b, _ := New(kind, fastParams())
		require.NoError(t, a.Fit(X, y))
		require.NoError(t, b.Fit(X, y))
		assert.Equal(t, a.PredictProba(query), b.PredictProba(query), kind.Name())
	}
}

func TestFitValidation(t *testing.T) {
	for _, kind := range Kinds() {
		m, _ := New(kind, fastParams())
		assert.ErrorIs(t, m.Fit(nil, nil), ErrEmptyTrainingSet, kind.Name())
		assert.Error(t, m.Fit([][]float64{{1, 2}, {3}}, []int{0, 1}), kind.Name())
		assert.Error(t, m.Fit([][]float64{{1}}, []int{0, 1}), kind.Name())
		assert.Error(t, m.Fit([][]float64{{1}}, []int{-1}), kind.Name())
	}
}

func TestKNNVoteShares(t *testing.T) {
	m := NewKNN(KNNParams{K: 3})
	X := [][]float64{{0}, {1}, {2}, {10}, {11}}
	y := []int{0, 0, 1, 2, 2}
	require.NoError(t, m.Fit(X, y))

	probs := m.PredictProba([]float64{0.9})
	assert.InDeltaSlice(t, []float64{2.0 / 3, 1.0 / 3, 0}, probs, 1e-12)
	assert.Equal(t, 0, m.Predict([]float64{0.9}))

	// K larger than the training set falls back to every row.
	big := NewKNN(KNNParams{K: 50})
	require.NoError(t, big.Fit(X, y))
	assert.InDeltaSlice(t, []float64{0.4, 0.2, 0.4}, big.PredictProba([]float64{5}), 1e-12)
	assert.Equal(t, 0, big.Predict([]float64{5}), "ties go to the lowest class")
}

func TestClassificationTreeIsPureOnSeparableData(t *testing.T) {
	X := [][]float64{{1, 0}, {2, 0}, {3, 1}, {4, 1}}
	y := []int{0, 0, 1, 1}
	tree := growClassificationTree(X, y, []int{0, 1, 2, 3}, 2, 0, treeConfig{minSamplesSplit: 2})
	require.False(t, tree.leaf)
	assert.Equal(t, []float64{1, 0}, tree.find([]float64{1.5, 0}).value)
	assert.Equal(t, []float64{0, 1}, tree.find([]float64{3.5, 1}).value)
}

func TestRegressionTreeDepthLimit(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	target := []float64{1, 2, 3, 4}
	tree := growRegressionTree(X, target, []int{0, 1, 2, 3}, 0, treeConfig{maxDepth: 1, minSamplesSplit: 2})
	leaves := 0
	tree.leaves(func(*treeNode) { leaves++ })
	assert.Equal(t, 2, leaves)
}

func TestGini(t *testing.T) {
	assert.Equal(t, 0.0, gini([]float64{4, 0}, 4))
	assert.InDelta(t, 0.5, gini([]float64{2, 2}, 4), 1e-12)
	assert.Equal(t, 0.0, gini([]float64{0, 0}, 0))
}

func TestSoftmaxIsStable(t *testing.T) {
	probs := softmax([]float64{1000, 1000, -1000})
	assert.InDelta(t, 0.5, probs[0], 1e-12)
	assert.False(t, math.IsNaN(probs[2]))
}

func TestConcurrentPredict(t *testing.T) {
	X, y := clusters(15, 5)
	models := make([]Classifier, 0, len(Kinds()))
	for _, kind := range Kinds() {
		m, _ := New(kind, fastParams())
		require.NoError(t, m.Fit(X, y))
		models = append(models, m)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, m := range models {
				for _, row := range X {
					_ = m.Predict(row)
				}
			}
		}()
	}
	wg.Wait()
}
