package boost

import (
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/evaluation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var testFeatures = []string{"signal", "noise_a", "noise_b"}

// separable returns rows whose label is 1 exactly when the first feature
// exceeds 0.5; the other two columns are noise.
func separable(n int, seed int64) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := mat.NewDense(n, len(testFeatures), nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		signal := rng.Float64()
		x.Set(i, 0, signal)
		x.Set(i, 1, rng.NormFloat64())
		x.Set(i, 2, float64(rng.Intn(4)))
		if signal > 0.5 {
			y[i] = 1
		}
	}
	return x, y
}

func quickConfig() Config {
	cfg := DefaultConfig()
	cfg.Rounds = 80
	cfg.LearningRate = 0.3
	return cfg
}

func TestTrain_SeparableData(t *testing.T) {
	x, y := separable(400, 1)

	res, err := Train(context.Background(), x, y, testFeatures, quickConfig())
	require.NoError(t, err)

	require.NotEmpty(t, res.ValidRows)
	report := evaluation.Evaluate(res.ValidProbs, res.ValidLabels, 0.5)
	assert.Greater(t, report.AUC, 0.95)
	assert.Greater(t, report.Accuracy, 0.9)
	for _, p := range res.ValidProbs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}

	m := res.Model
	assert.Len(t, m.Trees, m.BestIteration+1)
	assert.Equal(t, testFeatures, m.Features)
	require.Len(t, m.Background, len(testFeatures))
	assert.InDelta(t, 0.5, m.Background[0], 0.1)

	imp := m.Importance()
	require.NotEmpty(t, imp)
	assert.Equal(t, "signal", imp[0].Feature)
}

func TestTrain_SingleClass(t *testing.T) {
	x, _ := separable(20, 2)
	y := make([]float64, 20)

	_, err := Train(context.Background(), x, y, testFeatures, quickConfig())
	assert.ErrorIs(t, err, ErrSingleClass)
}

func TestTrain_InvalidInput(t *testing.T) {
	x, y := separable(20, 3)

	tests := []struct {
		name     string
		y        []float64
		features []string
		cfg      Config
		want     error
	}{
		{name: "label out of range", y: append([]float64{2}, y[1:]...), features: testFeatures, cfg: quickConfig(), want: common.ErrInvalidInput},
		{name: "short labels", y: y[:5], features: testFeatures, cfg: quickConfig(), want: common.ErrInvalidInput},
		{name: "feature names", y: y, features: testFeatures[:1], cfg: quickConfig(), want: common.ErrInvalidInput},
		{name: "config", y: y, features: testFeatures, cfg: Config{}, want: common.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Train(context.Background(), x, tt.y, tt.features, tt.cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTrain_ProgressAndCancel(t *testing.T) {
	x, y := separable(200, 4)

	var rounds []Progress
	res, err := Train(context.Background(), x, y, testFeatures, quickConfig(),
		WithProgress(func(p Progress) { rounds = append(rounds, p) }))
	require.NoError(t, err)
	require.Len(t, rounds, res.RoundsRun)
	assert.Equal(t, 1, rounds[0].Round)
	assert.False(t, math.IsNaN(rounds[0].ValidLoss))
	assert.Less(t, rounds[len(rounds)-1].TrainLoss, rounds[0].TrainLoss)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Train(ctx, x, y, testFeatures, quickConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrain_Deterministic(t *testing.T) {
	x, y := separable(200, 5)

	a, err := Train(context.Background(), x, y, testFeatures, quickConfig())
	require.NoError(t, err)
	b, err := Train(context.Background(), x, y, testFeatures, quickConfig())
	require.NoError(t, err)
	assert.Equal(t, a.ValidProbs, b.ValidProbs)
}

func TestTrain_NoValidation(t *testing.T) {
	x, y := separable(100, 6)
	cfg := quickConfig()
	cfg.ValidationFraction = 0
	cfg.Rounds = 10

	res, err := Train(context.Background(), x, y, testFeatures, cfg)
	require.NoError(t, err)
	assert.Empty(t, res.ValidRows)
	assert.Len(t, res.Model.Trees, 10)
	assert.True(t, math.IsNaN(res.BestValidLogLoss))
}

func TestTree_RawAndBinnedAgree(t *testing.T) {
	x, y := separable(300, 7)
	rows := make([]int, 300)
	for i := range rows {
		rows[i] = i
	}
	data := newBinned(x, rows, 16)
	grad := make([]float64, len(y))
	hess := make([]float64, len(y))
	for i, v := range y {
		grad[i] = 0.5 - v
		hess[i] = 0.25
	}
	g := &grower{data: data, grad: grad, hess: hess, cfg: DefaultConfig(), features: []int{0, 1, 2}}
	g.grow(rows, 0)
	tree := Tree{Nodes: g.nodes}

	for _, r := range rows {
		assert.Equal(t, tree.predictBinned(data, r), tree.Predict(mat.Row(nil, r, x)), "row %d", r)
	}
}

func TestCutPoints(t *testing.T) {
	assert.Equal(t, []float64{1.5, 2.5}, cutPoints([]float64{1, 2, 3, 2, math.NaN()}, 256))
	assert.Empty(t, cutPoints([]float64{4, 4, 4}, 256))

	many := make([]float64, 1000)
	for i := range many {
		many[i] = float64(i)
	}
	cuts := cutPoints(many, 8)
	assert.LessOrEqual(t, len(cuts), 7)
	for i := 1; i < len(cuts); i++ {
		assert.Greater(t, cuts[i], cuts[i-1])
	}

	assert.Equal(t, 0, binOf(cuts, math.NaN()))
	assert.Equal(t, 0, binOf(cuts, -1))
	assert.Equal(t, len(cuts), binOf(cuts, 1e9))
}

func TestStratifiedSplit(t *testing.T) {
	labels := make([]float64, 100)
	for i := 0; i < 20; i++ {
		labels[i*5] = 1
	}

	train, valid := StratifiedSplit(labels, 0.2, 42)
	assert.Len(t, valid, 20)
	assert.Len(t, train, 80)

	seen := make(map[int]bool)
	positives := 0
	for _, i := range valid {
		seen[i] = true
		positives += int(labels[i])
	}
	for _, i := range train {
		assert.False(t, seen[i], "row %d in both sets", i)
	}
	assert.Equal(t, 4, positives)

	train2, valid2 := StratifiedSplit(labels, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, valid, valid2)
}

func TestStratifiedSplit_SmallClasses(t *testing.T) {
	train, valid := StratifiedSplit([]float64{0, 0, 1}, 0.2, 1)
	// The lone positive stays in training; the negatives give one row.
	assert.Equal(t, 1, len(valid))
	assert.Contains(t, train, 2)
}

func TestModel_SaveLoad(t *testing.T) {
	x, y := separable(200, 8)
	res, err := Train(context.Background(), x, y, testFeatures, quickConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "models", "model.json")
	require.NoError(t, res.Model.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, res.Model.PredictMatrix(x), loaded.PredictMatrix(x))
	assert.NoError(t, loaded.CheckFeatures(testFeatures))
	assert.ErrorIs(t, loaded.CheckFeatures([]string{"signal"}), common.ErrArtifactMismatch)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "nope.json"))
	assert.ErrorIs(t, err, common.ErrArtifactNotFound)

	path := filepath.Join(dir, "model.json")
	require.NoError(t, common.WriteFileAtomic(path, []byte(`{"version": 0}`)))
	_, err = Load(path)
	assert.ErrorIs(t, err, common.ErrArtifactVersion)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.MaxBins = 1000
	cfg.Subsample = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_bins")
	assert.Contains(t, err.Error(), "subsample")
}
