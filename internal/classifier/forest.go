package classifier

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// ForestParams configures the random forest.
type ForestParams struct {
	NTrees   int
	MaxDepth int
	Seed     int64
}

// RandomForest averages the class proportions of bootstrapped Gini trees, each
// split choosing among sqrt(features) randomly drawn features.
type RandomForest struct {
	params  ForestParams
	trees   []*treeNode
	classes int
}

func NewRandomForest(p ForestParams) *RandomForest {
	if p.NTrees <= 0 {
		p.NTrees = 150
	}
	return &RandomForest{params: p}
}

func (m *RandomForest) Fit(X [][]float64, y []int) error {
	features, classes, err := validate(X, y)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(m.params.Seed))
	cfg := treeConfig{
		maxDepth:        m.params.MaxDepth,
		minSamplesSplit: 2,
		maxFeatures:     int(math.Max(1, math.Floor(math.Sqrt(float64(features))))),
		rng:             rng,
	}

	m.classes = classes
	m.trees = make([]*treeNode, m.params.NTrees)
	n := len(X)
	for t := range m.trees {
		boot := make([]int, n)
		for i := range boot {
			boot[i] = rng.Intn(n)
		}
		m.trees[t] = growClassificationTree(X, y, boot, classes, 0, cfg)
	}
	return nil
}

func (m *RandomForest) PredictProba(x []float64) []float64 {
	if m.trees == nil {
		panic(ErrNotFitted)
	}
	probs := make([]float64, m.classes)
	for _, tree := range m.trees {
		floats.Add(probs, tree.find(x).value)
	}
	floats.Scale(1/float64(len(m.trees)), probs)
	return probs
}

func (m *RandomForest) Predict(x []float64) int {
	return argmax(m.PredictProba(x))
}
