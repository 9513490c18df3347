package boost

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// binned holds every feature quantized to histogram bins. A value's bin is
// the number of cut points at or below it, so a split after bin b sends
// x < cuts[b] left. NaN falls in bin 0.
type binned struct {
	bins  [][]uint8 // [feature][row]
	cuts  [][]float64
	nbins []int
}

func newBinned(x mat.Matrix, rows []int, maxBins int) *binned {
	_, c := x.Dims()
	b := &binned{
		bins:  make([][]uint8, c),
		cuts:  make([][]float64, c),
		nbins: make([]int, c),
	}
	col := make([]float64, len(rows))
	for j := 0; j < c; j++ {
		for k, r := range rows {
			col[k] = x.At(r, j)
		}
		cuts := cutPoints(col, maxBins)
		b.cuts[j] = cuts
		b.nbins[j] = len(cuts) + 1
		b.bins[j] = make([]uint8, len(rows))
		for k, v := range col {
			b.bins[j][k] = uint8(binOf(cuts, v))
		}
	}
	return b
}

// cutPoints returns at most maxBins-1 strictly increasing thresholds. With few
// distinct values they are midpoints between neighbors; otherwise they sit at
// evenly spaced ranks of the sorted values.
func cutPoints(values []float64, maxBins int) []float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)

	distinct := sorted[:0:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			distinct = append(distinct, v)
		}
	}

	var cuts []float64
	if len(distinct) <= maxBins {
		for i := 1; i < len(distinct); i++ {
			cuts = append(cuts, (distinct[i-1]+distinct[i])/2)
		}
		return cuts
	}

	for k := 1; k < maxBins; k++ {
		v := sorted[k*len(sorted)/maxBins]
		if v == sorted[0] {
			continue
		}
		if len(cuts) == 0 || v > cuts[len(cuts)-1] {
			cuts = append(cuts, v)
		}
	}
	return cuts
}

func binOf(cuts []float64, v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return sort.Search(len(cuts), func(i int) bool { return cuts[i] > v })
}
