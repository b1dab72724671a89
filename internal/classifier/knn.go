package classifier

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// KNNParams configures the nearest-neighbour classifier.
type KNNParams struct {
	K int
}

// KNN votes among the K training rows closest in Euclidean distance. Each
// neighbour has one vote; equal vote counts go to the lowest class index.
type KNN struct {
	k       int
	X       [][]float64
	y       []int
	classes int
}

func NewKNN(p KNNParams) *KNN {
	if p.K <= 0 {
		p.K = 5
	}
	return &KNN{k: p.K}
}

func (m *KNN) Fit(X [][]float64, y []int) error {
	_, classes, err := validate(X, y)
	if err != nil {
		return err
	}
	m.X = make([][]float64, len(X))
	for i, row := range X {
		m.X[i] = append([]float64(nil), row...)
	}
	m.y = append([]int(nil), y...)
	m.classes = classes
	return nil
}

type neighbour struct {
	dist float64
	idx  int
}

func (m *KNN) PredictProba(x []float64) []float64 {
	if m.X == nil {
		panic(ErrNotFitted)
	}
	ns := make([]neighbour, len(m.X))
	for i, row := range m.X {
		ns[i] = neighbour{dist: floats.Distance(x, row, 2), idx: i}
	}
	sort.Slice(ns, func(a, b int) bool {
		if ns[a].dist != ns[b].dist {
			return ns[a].dist < ns[b].dist
		}
		return ns[a].idx < ns[b].idx
	})

	k := m.k
	if k > len(ns) {
		k = len(ns)
	}
	probs := make([]float64, m.classes)
	for _, n := range ns[:k] {
		probs[m.y[n.idx]]++
	}
	floats.Scale(1/float64(k), probs)
	return probs
}

func (m *KNN) Predict(x []float64) int {
	return argmax(m.PredictProba(x))
}
