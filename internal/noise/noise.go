// Package noise injects reproducible label noise so model selection is measured
// against imperfect annotations.
package noise

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"urgency-service/internal/models"
)

// Source is the random stream the perturber draws from. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Perm(n int) []int
}

// NewSource returns a deterministic source for seed.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// Result describes one perturbation.
type Result struct {
	Labels  []models.Severity
	Changed []int // indices whose label was replaced, ascending
}

// Count is the number of labels Perturb replaces for n records at fraction p.
func Count(p float64, n int) int {
	return int(math.Round(p * float64(n)))
}

// Perturb replaces the labels of round(p*n) distinct records with a different
// severity. Indices are drawn without replacement, then each replacement is
// drawn uniformly from the two remaining levels, in that order, from src. The
// input slice is left untouched.
func Perturb(labels []models.Severity, p float64, src Source) (Result, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return Result{}, fmt.Errorf("noise fraction %v outside [0,1]", p)
	}
	out := make([]models.Severity, len(labels))
	copy(out, labels)

	k := Count(p, len(labels))
	if k == 0 {
		return Result{Labels: out}, nil
	}

	indices := src.Perm(len(labels))[:k]
	for _, idx := range indices {
		original := out[idx]
		if !original.Valid() {
			return Result{}, fmt.Errorf("record %d has invalid label %d", idx, int(original))
		}
		options := alternatives(original)
		out[idx] = options[src.Intn(len(options))]
	}

	changed := make([]int, k)
	copy(changed, indices)
	sort.Ints(changed)
	return Result{Labels: out, Changed: changed}, nil
}

func alternatives(s models.Severity) []models.Severity {
	options := make([]models.Severity, 0, models.NumSeverities-1)
	for _, level := range models.Severities() {
		if level != s {
			options = append(options, level)
		}
	}
	return options
}
