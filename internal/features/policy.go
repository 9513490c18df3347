package features

import (
	"math"
	"sort"
	"strings"

	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// Policy names recorded in the fitted artifact.
const (
	PolicyMedian        = "median"
	PolicyMostFrequent  = "most_frequent"
	PolicyStandard      = "standard"
	PolicyOneHotIgnore  = "onehot_ignore_unknown"
	fallbackCategory    = dataset.UnknownCategory
	fallbackNumericFill = 0
)

// ImputeMedian returns the fill value for a numeric column: the median of its
// non-null values, or 0 when every value is null.
func ImputeMedian(values []float64) float64 {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return fallbackNumericFill
	}
	return dataset.Median(present)
}

// ImputeMostFrequent returns the fill value for a categorical column: its most
// frequent non-null value with ties going to the lexicographically smallest.
// An all-null column fills with "Unknown".
func ImputeMostFrequent(values []string) string {
	counts := make(map[string]int)
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return fallbackCategory
	}
	return dataset.MostFrequent(counts)
}

// ScaleStandard returns the mean and population standard deviation used to
// standardize a column. A zero or undefined deviation becomes 1 so constant
// columns map to zero instead of dividing by zero.
func ScaleStandard(values []float64) (mean, std float64) {
	mean, std = stat.PopMeanStdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	return mean, std
}

// EncodeOneHotIgnoreUnknown writes the indicator vector of value over the
// vocabulary into dst. Values outside the vocabulary encode as all zeros.
func EncodeOneHotIgnoreUnknown(value string, vocabulary []string, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	if i := sort.SearchStrings(vocabulary, value); i < len(vocabulary) && vocabulary[i] == value {
		dst[i] = 1
	}
}

func nullNumeric(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func isNull(v float64) bool { return math.IsNaN(v) }
