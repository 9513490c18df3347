// Package explain attributes a model's score for one feature vector to the
// individual features.
package explain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/Veraticus/credit-risk-model/internal/model"
)

// DefaultSamples is the number of permutations drawn per explanation.
const DefaultSamples = 64

// ErrDimension is returned when the input, background and names disagree in length.
var ErrDimension = errors.New("attribution dimensions do not match")

// Predictor is the model surface attribution needs: the raw margin of one
// feature vector.
type Predictor interface {
	Margin(x []float64) float64
}

// Attributor explains a single prediction.
type Attributor interface {
	Attribute(ctx context.Context, p Predictor, x []float64, names []string) ([]model.Contribution, error)
}

// SampledShapley estimates Shapley values on the margin scale by averaging
// marginal contributions over random feature orderings. Features absent from
// a coalition take their background value. For every ordering the
// contributions sum to Margin(x) - Margin(background), so the estimate is
// exactly additive.
type SampledShapley struct {
	background []float64
	samples    int
	seed       int64
}

// NewSampledShapley returns an attributor against background, typically the
// training feature means. Samples below 1 use DefaultSamples.
func NewSampledShapley(background []float64, samples int, seed int64) *SampledShapley {
	if samples < 1 {
		samples = DefaultSamples
	}
	return &SampledShapley{
		background: append([]float64(nil), background...),
		samples:    samples,
		seed:       seed,
	}
}

// Attribute returns one contribution per feature, in input order. Each call
// seeds its own generator, so results are reproducible and concurrent calls
// are safe.
func (s *SampledShapley) Attribute(ctx context.Context, p Predictor, x []float64, names []string) ([]model.Contribution, error) {
	n := len(x)
	if len(s.background) != n || len(names) != n {
		return nil, fmt.Errorf("%w: %d values, %d background, %d names", ErrDimension, n, len(s.background), len(names))
	}

	rng := rand.New(rand.NewSource(s.seed)) //nolint:gosec // reproducible attribution
	phi := make([]float64, n)
	z := make([]float64, n)
	for k := 0; k < s.samples; k++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("attribution cancelled: %w", err)
		}
		copy(z, s.background)
		prev := p.Margin(z)
		for _, j := range rng.Perm(n) {
			z[j] = x[j]
			cur := p.Margin(z)
			phi[j] += cur - prev
			prev = cur
		}
	}

	out := make([]model.Contribution, n)
	for j := range out {
		out[j] = model.Contribution{Feature: names[j], Value: phi[j] / float64(s.samples)}
	}
	return out, nil
}

// Top returns the n contributions with the largest magnitude, largest first.
// Ties keep input order.
func Top(contribs []model.Contribution, n int) []model.Contribution {
	sorted := append([]model.Contribution(nil), contribs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Value) > math.Abs(sorted[j].Value)
	})
	if n < len(sorted) {
		sorted = sorted[:max(n, 0)]
	}
	return sorted
}
