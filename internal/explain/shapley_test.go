package explain

import (
	"context"
	"testing"

	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type linear []float64

func (w linear) Margin(x []float64) float64 {
	sum := 0.0
	for i, v := range x {
		sum += w[i] * v
	}
	return sum
}

// interaction scores only when both features are set.
type interaction struct{}

func (interaction) Margin(x []float64) float64 {
	if x[0] > 0 && x[1] > 0 {
		return 10
	}
	return 0
}

var names = []string{"a", "b", "c"}

func TestSampledShapley_LinearModelIsExact(t *testing.T) {
	w := linear{2, -1, 0.5}
	bg := []float64{1, 1, 1}
	x := []float64{3, 5, 1}

	got, err := NewSampledShapley(bg, 16, 42).Attribute(context.Background(), w, x, names)
	require.NoError(t, err)

	want := []float64{4, -4, 0}
	for i, c := range got {
		assert.Equal(t, names[i], c.Feature)
		assert.InDelta(t, want[i], c.Value, 1e-12)
	}
}

func TestSampledShapley_Additive(t *testing.T) {
	bg := []float64{0, 0, 0}
	x := []float64{1, 1, 7}

	got, err := NewSampledShapley(bg, 0, 7).Attribute(context.Background(), interaction{}, x, names)
	require.NoError(t, err)

	sum := 0.0
	for _, c := range got {
		sum += c.Value
	}
	m := interaction{}
	assert.InDelta(t, m.Margin(x)-m.Margin(bg), sum, 1e-9)
	assert.InDelta(t, 0, got[2].Value, 1e-12)
	assert.Greater(t, got[0].Value, 0.0)
	assert.Greater(t, got[1].Value, 0.0)
}

func TestSampledShapley_Deterministic(t *testing.T) {
	s := NewSampledShapley([]float64{0, 0, 0}, 8, 3)
	x := []float64{1, 1, 0}

	a, err := s.Attribute(context.Background(), interaction{}, x, names)
	require.NoError(t, err)
	b, err := s.Attribute(context.Background(), interaction{}, x, names)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSampledShapley_Errors(t *testing.T) {
	s := NewSampledShapley([]float64{0, 0}, 4, 1)
	_, err := s.Attribute(context.Background(), linear{1, 1, 1}, []float64{1, 2, 3}, names)
	assert.ErrorIs(t, err, ErrDimension)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s = NewSampledShapley([]float64{0, 0, 0}, 4, 1)
	_, err = s.Attribute(ctx, linear{1, 1, 1}, []float64{1, 2, 3}, names)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTop(t *testing.T) {
	contribs := []model.Contribution{
		{Feature: "a", Value: 0.1},
		{Feature: "b", Value: -0.9},
		{Feature: "c", Value: 0.4},
		{Feature: "d", Value: 0.4},
	}

	top := Top(contribs, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "b", top[0].Feature)
	assert.Equal(t, "c", top[1].Feature)
	assert.Equal(t, "d", top[2].Feature)

	assert.Len(t, Top(contribs, 10), 4)
	assert.Empty(t, Top(contribs, 0))
	assert.Equal(t, "a", contribs[0].Feature, "input must not be reordered")
}
