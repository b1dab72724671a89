package evaluation

// ClassScore is the per-class part of a classification report.
type ClassScore struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report summarizes predictions against ground truth. Classes is indexed by
// class label.
type Report struct {
	Classes    []ClassScore `json:"classes"`
	Accuracy   float64      `json:"accuracy"`
	WeightedF1 float64      `json:"weighted_f1"`
}

// ClassF1 returns the F1 score of class c, or 0 when c is out of range.
func (r Report) ClassF1(c int) float64 {
	if c < 0 || c >= len(r.Classes) {
		return 0
	}
	return r.Classes[c].F1
}

// Evaluate scores yPred against yTrue over classes 0..classes-1. Ratios with
// a zero denominator are reported as 0. WeightedF1 averages per-class F1
// weighted by support.
func Evaluate(yTrue, yPred []int, classes int) Report {
	tp := make([]int, classes)
	fp := make([]int, classes)
	fn := make([]int, classes)
	support := make([]int, classes)
	correct := 0

	for i, truth := range yTrue {
		pred := yPred[i]
		if truth >= 0 && truth < classes {
			support[truth]++
		}
		if pred == truth {
			correct++
			if truth >= 0 && truth < classes {
				tp[truth]++
			}
			continue
		}
		if pred >= 0 && pred < classes {
			fp[pred]++
		}
		if truth >= 0 && truth < classes {
			fn[truth]++
		}
	}

	report := Report{Classes: make([]ClassScore, classes)}
	total := 0
	weighted := 0.0
	for c := 0; c < classes; c++ {
		score := ClassScore{
			Precision: ratio(tp[c], tp[c]+fp[c]),
			Recall:    ratio(tp[c], tp[c]+fn[c]),
			F1:        ratio(2*tp[c], 2*tp[c]+fp[c]+fn[c]),
			Support:   support[c],
		}
		report.Classes[c] = score
		weighted += score.F1 * float64(support[c])
		total += support[c]
	}
	if total > 0 {
		report.WeightedF1 = weighted / float64(total)
	}
	if len(yTrue) > 0 {
		report.Accuracy = float64(correct) / float64(len(yTrue))
	}
	return report
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
