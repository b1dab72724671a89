package classifier

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// LogisticParams configures multinomial logistic regression.
type LogisticParams struct {
	MaxIter      int
	LearningRate float64
	C            float64 // inverse L2 regularization strength
}

// LogisticRegression is a softmax regression trained by full-batch gradient
// descent on standardized features.
type LogisticRegression struct {
	params LogisticParams

	mean, scale []float64
	weights     [][]float64 // one row per class
	bias        []float64
}

func NewLogisticRegression(p LogisticParams) *LogisticRegression {
	if p.MaxIter <= 0 {
		p.MaxIter = 500
	}
	if p.LearningRate <= 0 {
		p.LearningRate = 0.5
	}
	if p.C <= 0 {
		p.C = 1
	}
	return &LogisticRegression{params: p}
}

func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	features, classes, err := validate(X, y)
	if err != nil {
		return err
	}
	n := len(X)

	m.mean = make([]float64, features)
	m.scale = make([]float64, features)
	col := make([]float64, n)
	for j := 0; j < features; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		m.mean[j], m.scale[j] = mean, std
	}

	Xs := make([][]float64, n)
	for i, row := range X {
		Xs[i] = m.standardize(row)
	}

	m.weights = make([][]float64, classes)
	for k := range m.weights {
		m.weights[k] = make([]float64, features)
	}
	m.bias = make([]float64, classes)

	lambda := 1 / (m.params.C * float64(n))
	gradW := make([][]float64, classes)
	for k := range gradW {
		gradW[k] = make([]float64, features)
	}
	gradB := make([]float64, classes)
	probs := make([]float64, classes)

	for iter := 0; iter < m.params.MaxIter; iter++ {
		for k := range gradW {
			copy(gradW[k], m.weights[k])
			floats.Scale(lambda, gradW[k])
			gradB[k] = 0
		}
		for i, row := range Xs {
			m.softmax(row, probs)
			for k := 0; k < classes; k++ {
				diff := probs[k]
				if y[i] == k {
					diff -= 1
				}
				diff /= float64(n)
				floats.AddScaled(gradW[k], diff, row)
				gradB[k] += diff
			}
		}
		for k := 0; k < classes; k++ {
			floats.AddScaled(m.weights[k], -m.params.LearningRate, gradW[k])
			m.bias[k] -= m.params.LearningRate * gradB[k]
		}
	}
	return nil
}

func (m *LogisticRegression) standardize(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - m.mean[j]) / m.scale[j]
	}
	return out
}

func (m *LogisticRegression) softmax(xs []float64, out []float64) {
	for k := range m.weights {
		out[k] = floats.Dot(m.weights[k], xs) + m.bias[k]
	}
	maxLogit := floats.Max(out)
	for k := range out {
		out[k] = math.Exp(out[k] - maxLogit)
	}
	floats.Scale(1/floats.Sum(out), out)
}

func (m *LogisticRegression) PredictProba(x []float64) []float64 {
	if m.weights == nil {
		panic(ErrNotFitted)
	}
	probs := make([]float64, len(m.weights))
	m.softmax(m.standardize(x), probs)
	return probs
}

func (m *LogisticRegression) Predict(x []float64) int {
	return argmax(m.PredictProba(x))
}
