package cli

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RenderDistribution draws a text histogram of risk probabilities over bins
// equal-width buckets of [0, 1]. Unparsed (NaN) values are skipped.
func RenderDistribution(probs []float64, bins int) string {
	if bins < 1 {
		bins = 10
	}
	x := make([]float64, 0, len(probs))
	for _, p := range probs {
		if !math.IsNaN(p) {
			x = append(x, math.Min(math.Max(p, 0), 1))
		}
	}
	if len(x) == 0 {
		return FormatInfo("No probabilities to plot")
	}
	sort.Float64s(x)

	dividers := make([]float64, bins+1)
	floats.Span(dividers, 0, 1)
	// The last bucket is closed so that p == 1 is counted.
	dividers[bins] = math.Nextafter(1, 2)
	counts := stat.Histogram(nil, dividers, x, nil)

	const barWidth = 40
	peak := floats.Max(counts)
	var b strings.Builder
	for i, n := range counts {
		width := 0
		if peak > 0 {
			width = int(math.Round(n / peak * barWidth))
		}
		fmt.Fprintf(&b, "%.2f-%.2f │ %-*s %d\n", dividers[i], math.Min(dividers[i+1], 1), barWidth,
			strings.Repeat("█", width), int(n))
	}
	fmt.Fprintf(&b, "mean %.4f  median %.4f  n=%d",
		stat.Mean(x, nil), stat.Quantile(0.5, stat.Empirical, x, nil), len(x))
	return RenderBox(ChartIcon+" Distribution of Risk Probabilities", b.String())
}
