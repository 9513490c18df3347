// Package evaluation computes classification metrics for binary risk models.
package evaluation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

const probEpsilon = 1e-15

// Confusion counts predictions against true labels.
type Confusion struct {
	TruePositive  int `json:"tp"`
	FalsePositive int `json:"fp"`
	TrueNegative  int `json:"tn"`
	FalseNegative int `json:"fn"`
}

// Total returns the number of samples counted.
func (c Confusion) Total() int {
	return c.TruePositive + c.FalsePositive + c.TrueNegative + c.FalseNegative
}

// String renders the matrix as two rows: actual negative, actual positive.
func (c Confusion) String() string {
	return fmt.Sprintf("          pred 0  pred 1\nactual 0  %6d  %6d\nactual 1  %6d  %6d",
		c.TrueNegative, c.FalsePositive, c.FalseNegative, c.TruePositive)
}

// Report holds the metrics of one evaluation.
type Report struct {
	AUC       float64   `json:"roc_auc"`
	F1        float64   `json:"f1"`
	Accuracy  float64   `json:"accuracy"`
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	LogLoss   float64   `json:"log_loss"`
	Confusion Confusion `json:"confusion"`
	Samples   int       `json:"samples"`
}

// Evaluate scores probabilities against 0/1 labels. A probability above
// threshold predicts the positive class.
func Evaluate(probs, labels []float64, threshold float64) Report {
	c := ConfusionAt(probs, labels, threshold)
	return Report{
		AUC:       AUC(probs, labels),
		F1:        c.F1(),
		Accuracy:  c.Accuracy(),
		Precision: c.Precision(),
		Recall:    c.Recall(),
		LogLoss:   LogLoss(probs, labels),
		Confusion: c,
		Samples:   len(probs),
	}
}

// ConfusionAt counts predictions made at threshold.
func ConfusionAt(probs, labels []float64, threshold float64) Confusion {
	var c Confusion
	for i, p := range probs {
		predicted := p > threshold
		actual := labels[i] == 1
		switch {
		case predicted && actual:
			c.TruePositive++
		case predicted && !actual:
			c.FalsePositive++
		case !predicted && actual:
			c.FalseNegative++
		default:
			c.TrueNegative++
		}
	}
	return c
}

// Accuracy is the share of correct predictions; 0 for an empty matrix.
func (c Confusion) Accuracy() float64 {
	if c.Total() == 0 {
		return 0
	}
	return float64(c.TruePositive+c.TrueNegative) / float64(c.Total())
}

// Precision is 0 when nothing was predicted positive.
func (c Confusion) Precision() float64 {
	return ratio(c.TruePositive, c.TruePositive+c.FalsePositive)
}

// Recall is 0 when there are no positives.
func (c Confusion) Recall() float64 {
	return ratio(c.TruePositive, c.TruePositive+c.FalseNegative)
}

// F1 is the harmonic mean of precision and recall; 0 when undefined.
func (c Confusion) F1() float64 {
	return ratio(2*c.TruePositive, 2*c.TruePositive+c.FalsePositive+c.FalseNegative)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// AUC is the area under the ROC curve. It is NaN unless both classes occur.
func AUC(probs, labels []float64) float64 {
	if len(probs) == 0 {
		return math.NaN()
	}
	y := append([]float64(nil), probs...)
	classes := make([]bool, len(labels))
	pos := 0
	for i, l := range labels {
		classes[i] = l == 1
		if classes[i] {
			pos++
		}
	}
	if pos == 0 || pos == len(labels) {
		return math.NaN()
	}
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// LogLoss is the mean binary cross-entropy with probabilities clipped away
// from 0 and 1.
func LogLoss(probs, labels []float64) float64 {
	if len(probs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for i, p := range probs {
		p = math.Min(math.Max(p, probEpsilon), 1-probEpsilon)
		if labels[i] == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(probs))
}
