package ml

import "math"

// Accuracy is the share of matching labels.
func Accuracy(yTrue, yPred []string) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var hit int
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(yTrue))
}

// ClassScores are weighted averages over classes, weighted by support.
type ClassScores struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// PrecisionRecallF1 averages per-class scores weighted by true support. A
// class that is never predicted scores zero precision.
func PrecisionRecallF1(yTrue, yPred []string) ClassScores {
	if len(yTrue) == 0 {
		return ClassScores{}
	}
	support := map[string]int{}
	predicted := map[string]int{}
	hits := map[string]int{}
	for i := range yTrue {
		support[yTrue[i]]++
		predicted[yPred[i]]++
		if yTrue[i] == yPred[i] {
			hits[yTrue[i]]++
		}
	}

	var out ClassScores
	total := float64(len(yTrue))
	for class, n := range support {
		var p, r, f float64
		if predicted[class] > 0 {
			p = float64(hits[class]) / float64(predicted[class])
		}
		r = float64(hits[class]) / float64(n)
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}
		w := float64(n) / total
		out.Precision += w * p
		out.Recall += w * r
		out.F1 += w * f
	}
	return out
}

// RMSE is the root mean squared error.
func RMSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var sum float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(yTrue)))
}

// MAE is the mean absolute error.
func MAE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var sum float64
	for i := range yTrue {
		sum += math.Abs(yTrue[i] - yPred[i])
	}
	return sum / float64(len(yTrue))
}

// R2 is the coefficient of determination. A constant target scores 1 when
// predicted exactly and 0 otherwise.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	mean := 0.0
	for _, y := range yTrue {
		mean += y
	}
	mean /= float64(len(yTrue))

	var ssRes, ssTot float64
	for i := range yTrue {
		ssRes += (yTrue[i] - yPred[i]) * (yTrue[i] - yPred[i])
		ssTot += (yTrue[i] - mean) * (yTrue[i] - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
