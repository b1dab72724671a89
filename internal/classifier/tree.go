package classifier

import (
	"math/rand"
	"sort"
)

// splitEpsilon is the smallest impurity decrease that counts as a split.
const splitEpsilon = 1e-12

type treeNode struct {
	leaf      bool
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode

	value   []float64 // class proportions, or a single regression output
	samples []int     // leaf membership, kept until boosting assigns values
}

func (n *treeNode) find(x []float64) *treeNode {
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n
}

func (n *treeNode) leaves(visit func(*treeNode)) {
	if n.leaf {
		visit(n)
		return
	}
	n.left.leaves(visit)
	n.right.leaves(visit)
}

type treeConfig struct {
	maxDepth        int // <= 0 means unlimited
	minSamplesSplit int
	maxFeatures     int        // <= 0 means every feature
	rng             *rand.Rand // required when maxFeatures is set
}

func (c treeConfig) canSplit(depth, samples int) bool {
	if c.maxDepth > 0 && depth >= c.maxDepth {
		return false
	}
	return samples >= c.minSamplesSplit
}

// candidateFeatures returns the features examined at one node.
func (c treeConfig) candidateFeatures(features int) []int {
	if c.maxFeatures <= 0 || c.maxFeatures >= features {
		all := make([]int, features)
		for i := range all {
			all[i] = i
		}
		return all
	}
	subset := c.rng.Perm(features)[:c.maxFeatures]
	sort.Ints(subset)
	return subset
}

// sortedByFeature returns idx ordered by feature f, ties by sample index.
func sortedByFeature(X [][]float64, idx []int, f int) []int {
	sorted := append([]int(nil), idx...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return X[sorted[a]][f] < X[sorted[b]][f]
	})
	return sorted
}

func partition(X [][]float64, idx []int, f int, threshold float64) (left, right []int) {
	for _, i := range idx {
		if X[i][f] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

// growClassificationTree builds a CART tree that minimizes Gini impurity.
func growClassificationTree(X [][]float64, y []int, idx []int, classes, depth int, cfg treeConfig) *treeNode {
	counts := make([]float64, classes)
	for _, i := range idx {
		counts[y[i]]++
	}
	parent := gini(counts, float64(len(idx)))
	if parent == 0 || !cfg.canSplit(depth, len(idx)) {
		return classLeaf(counts, len(idx))
	}

	bestFeature, bestThreshold := -1, 0.0
	bestImpurity := parent - splitEpsilon
	left := make([]float64, classes)
	right := make([]float64, classes)
	n := float64(len(idx))

	for _, f := range cfg.candidateFeatures(len(X[0])) {
		sorted := sortedByFeature(X, idx, f)
		for k := range left {
			left[k] = 0
		}
		copy(right, counts)
		for pos := 0; pos < len(sorted)-1; pos++ {
			label := y[sorted[pos]]
			left[label]++
			right[label]--

			cur, next := X[sorted[pos]][f], X[sorted[pos+1]][f]
			if cur == next {
				continue
			}
			nl := float64(pos + 1)
			nr := n - nl
			impurity := (nl*gini(left, nl) + nr*gini(right, nr)) / n
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}
	if bestFeature < 0 {
		return classLeaf(counts, len(idx))
	}

	l, r := partition(X, idx, bestFeature, bestThreshold)
	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      growClassificationTree(X, y, l, classes, depth+1, cfg),
		right:     growClassificationTree(X, y, r, classes, depth+1, cfg),
	}
}

func classLeaf(counts []float64, total int) *treeNode {
	value := make([]float64, len(counts))
	for k, c := range counts {
		value[k] = c / float64(total)
	}
	return &treeNode{leaf: true, value: value}
}

func gini(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := c / total
		sum += p * p
	}
	return 1 - sum
}

// growRegressionTree builds a tree that minimizes squared error of target.
// Leaves keep their sample indices so the caller can assign output values.
func growRegressionTree(X [][]float64, target []float64, idx []int, depth int, cfg treeConfig) *treeNode {
	var sum, sumSq float64
	for _, i := range idx {
		sum += target[i]
		sumSq += target[i] * target[i]
	}
	n := float64(len(idx))
	parent := sumSq - sum*sum/n
	if parent <= splitEpsilon || !cfg.canSplit(depth, len(idx)) {
		return &treeNode{leaf: true, samples: idx}
	}

	bestFeature, bestThreshold := -1, 0.0
	bestError := parent - splitEpsilon

	for _, f := range cfg.candidateFeatures(len(X[0])) {
		sorted := sortedByFeature(X, idx, f)
		var lSum, lSq float64
		for pos := 0; pos < len(sorted)-1; pos++ {
			v := target[sorted[pos]]
			lSum += v
			lSq += v * v

			cur, next := X[sorted[pos]][f], X[sorted[pos+1]][f]
			if cur == next {
				continue
			}
			nl := float64(pos + 1)
			nr := n - nl
			rSum, rSq := sum-lSum, sumSq-lSq
			sse := (lSq - lSum*lSum/nl) + (rSq - rSum*rSum/nr)
			if sse < bestError {
				bestError = sse
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}
	if bestFeature < 0 {
		return &treeNode{leaf: true, samples: idx}
	}

	l, r := partition(X, idx, bestFeature, bestThreshold)
	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      growRegressionTree(X, target, l, depth+1, cfg),
		right:     growRegressionTree(X, target, r, depth+1, cfg),
	}
}
