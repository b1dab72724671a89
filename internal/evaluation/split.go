// Package evaluation partitions labeled data and scores predictions.
package evaluation

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"urgency-service/internal/apperr"
)

// StratifiedSplit partitions record indices into train and test sets so that
// every class keeps its share of records in both. Each class contributes
// round(count*testSize) records to the test set, clamped so that both sides
// get at least one. Indices are returned in ascending order.
func StratifiedSplit(y []int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size %v outside (0,1)", testSize)
	}
	if len(y) == 0 {
		return nil, nil, fmt.Errorf("%w: no records", apperr.ErrInsufficientData)
	}

	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	for _, c := range classes {
		members := byClass[c]
		if len(members) < 2 {
			return nil, nil, fmt.Errorf("%w: class %d has %d record(s), at least 2 are needed", apperr.ErrInsufficientData, c, len(members))
		}
		rng.Shuffle(len(members), func(a, b int) { members[a], members[b] = members[b], members[a] })

		nTest := int(math.Round(float64(len(members)) * testSize))
		if nTest < 1 {
			nTest = 1
		}
		if nTest > len(members)-1 {
			nTest = len(members) - 1
		}
		test = append(test, members[:nTest]...)
		train = append(train, members[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// Rows selects the rows of X at idx.
func Rows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = X[j]
	}
	return out
}

// Labels selects the labels at idx.
func Labels(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
