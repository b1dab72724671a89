package classifier

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// BoostingParams configures gradient boosting.
type BoostingParams struct {
	NTrees       int
	LearningRate float64
	MaxDepth     int
}

// GradientBoosting fits, per stage and per class, a regression tree to the
// multinomial deviance gradient and sets each leaf to a single Newton step.
type GradientBoosting struct {
	params  BoostingParams
	init    []float64
	stages  [][]*treeNode // [stage][class]
	classes int
}

func NewGradientBoosting(p BoostingParams) *GradientBoosting {
	if p.NTrees <= 0 {
		p.NTrees = 100
	}
	if p.LearningRate <= 0 {
		p.LearningRate = 0.1
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = 3
	}
	return &GradientBoosting{params: p}
}

func (m *GradientBoosting) Fit(X [][]float64, y []int) error {
	_, classes, err := validate(X, y)
	if err != nil {
		return err
	}
	n := len(X)
	m.classes = classes

	m.init = make([]float64, classes)
	for _, label := range y {
		m.init[label]++
	}
	for k := range m.init {
		m.init[k] = math.Log(math.Max(m.init[k]/float64(n), 1e-12))
	}

	raw := make([][]float64, n)
	for i := range raw {
		raw[i] = append([]float64(nil), m.init...)
	}
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	cfg := treeConfig{maxDepth: m.params.MaxDepth, minSamplesSplit: 2}
	scale := float64(classes-1) / float64(classes)

	probs := make([][]float64, n)
	residual := make([]float64, n)
	m.stages = make([][]*treeNode, 0, m.params.NTrees)
	for stage := 0; stage < m.params.NTrees; stage++ {
		for i := range raw {
			probs[i] = softmax(raw[i])
		}
		trees := make([]*treeNode, classes)
		for k := 0; k < classes; k++ {
			for i := range residual {
				residual[i] = -probs[i][k]
				if y[i] == k {
					residual[i]++
				}
			}
			tree := growRegressionTree(X, residual, all, 0, cfg)
			tree.leaves(func(leaf *treeNode) {
				var num, den float64
				for _, i := range leaf.samples {
					num += residual[i]
					den += probs[i][k] * (1 - probs[i][k])
				}
				value := 0.0
				if math.Abs(den) > 1e-150 {
					value = scale * num / den
				}
				leaf.value = []float64{value}
				for _, i := range leaf.samples {
					raw[i][k] += m.params.LearningRate * value
				}
				leaf.samples = nil
			})
			trees[k] = tree
		}
		m.stages = append(m.stages, trees)
	}
	return nil
}

func (m *GradientBoosting) PredictProba(x []float64) []float64 {
	if m.stages == nil {
		panic(ErrNotFitted)
	}
	raw := append([]float64(nil), m.init...)
	for _, trees := range m.stages {
		for k, tree := range trees {
			raw[k] += m.params.LearningRate * tree.find(x).value[0]
		}
	}
	return softmax(raw)
}

func (m *GradientBoosting) Predict(x []float64) int {
	return argmax(m.PredictProba(x))
}

func softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	maxLogit := floats.Max(logits)
	for k, v := range logits {
		out[k] = math.Exp(v - maxLogit)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
