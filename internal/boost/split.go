package boost

import (
	"math"
	"math/rand"
	"sort"
)

// StratifiedSplit partitions row indices into training and validation sets,
// keeping each label's share roughly equal in both. Every class with at least
// two rows contributes at least one validation row and keeps at least one
// training row. Both index lists are sorted.
func StratifiedSplit(labels []float64, fraction float64, seed int64) (train, valid []int) {
	byClass := make(map[float64][]int)
	var classes []float64
	for i, l := range labels {
		if _, ok := byClass[l]; !ok {
			classes = append(classes, l)
		}
		byClass[l] = append(byClass[l], i)
	}
	sort.Float64s(classes)

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible split
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		n := int(math.Round(fraction * float64(len(idx))))
		if fraction > 0 && len(idx) >= 2 {
			n = max(n, 1)
			n = min(n, len(idx)-1)
		}
		valid = append(valid, idx[:n]...)
		train = append(train, idx[n:]...)
	}
	sort.Ints(train)
	sort.Ints(valid)
	return train, valid
}
