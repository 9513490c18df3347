package cli

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/boost"
	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/evaluation"
	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestRenderEvaluation(t *testing.T) {
	r := evaluation.Report{
		AUC:       math.NaN(),
		F1:        0.5,
		Accuracy:  0.75,
		Precision: 1,
		Recall:    1.0 / 3,
		LogLoss:   0.41,
		Samples:   8,
		Confusion: evaluation.Confusion{TruePositive: 1, FalseNegative: 2, TrueNegative: 5},
	}
	out := RenderEvaluation(r, "validation")

	assert.Contains(t, out, "validation (8 samples)")
	assert.Contains(t, out, "ROC-AUC:   n/a")
	assert.Contains(t, out, "0.3333")
	assert.Contains(t, out, "actual 1")
}

func TestRenderCleanReport(t *testing.T) {
	r := dataset.CleanReport{
		RowsIn:            10,
		RowsOut:           9,
		DuplicatesDropped: 1,
		CategoricalFills:  map[string]int{model.ColChannelID: 2, model.ColProviderID: 0},
		Medians:           map[string]float64{model.ColAmount: 150},
		Caps:              map[string]dataset.Bounds{model.ColAmount: {Lower: -10, Upper: 400}},
		CappedValues:      map[string]int{model.ColAmount: 1},
	}
	out := RenderCleanReport(r)

	assert.Contains(t, out, "Duplicates dropped: 1")
	assert.Contains(t, out, "ChannelId filled with Unknown: 2")
	assert.NotContains(t, out, "ProviderId filled")
	assert.Contains(t, out, "[-10.00, 400.00] (1 values)")
	assert.NotContains(t, out, "FraudResult")
}

func TestRenderPrediction(t *testing.T) {
	p := model.Prediction{
		Transaction: model.Transaction{CustomerID: "CustomerId_7"},
		Probability: 0.72,
		Label:       1,
		Band:        model.RiskHigh,
		TopFeatures: []model.Contribution{
			{Feature: "Recency", Value: 0.4},
			{Feature: "AmountSum", Value: -0.1},
		},
	}
	out := RenderPrediction(p)

	assert.Contains(t, out, "CustomerId_7")
	assert.Contains(t, out, "0.7200")
	assert.Contains(t, out, "High")
	assert.Contains(t, out, "Recency +0.4000")
	assert.Contains(t, out, "raises risk")
	assert.Contains(t, out, "lowers risk")

	p.TopFeatures = nil
	assert.NotContains(t, RenderPrediction(p), "Top contributing")
}

func TestRenderRuns(t *testing.T) {
	assert.Contains(t, RenderRuns(nil), "No training runs")

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	out := RenderRuns([]model.TrainingRun{{
		ID:         "0123456789abcdef",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Customers:  36,
		HighRisk:   12,
		Metrics:    map[string]float64{"roc_auc": 0.91},
	}})

	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "89abcdef")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "0.9100")
	assert.Contains(t, out, "n/a", "missing F1 is shown as n/a")
}

func TestTrainingProgress(t *testing.T) {
	var out bytes.Buffer
	p := NewTrainingProgress(&out, 10)

	_, seen := p.Last()
	assert.False(t, seen)

	for round := 1; round <= 4; round++ {
		p.Observe(boost.Progress{Round: round, Rounds: 10, TrainLoss: 0.5, ValidLoss: math.NaN()})
	}
	p.Finish()

	last, seen := p.Last()
	assert.True(t, seen)
	assert.Equal(t, 4, last.Round)
}

func TestBandStyle(t *testing.T) {
	for _, band := range []model.RiskBand{model.RiskLow, model.RiskMedium, model.RiskHigh} {
		assert.Contains(t, BandStyle(band).Render(string(band)), string(band))
	}
}

func TestRenderDistribution(t *testing.T) {
	out := RenderDistribution([]float64{0, 0.05, 0.1, 0.55, 1, math.NaN()}, 4)

	assert.Contains(t, out, "0.00-0.25")
	assert.Contains(t, out, "0.75-1.00")
	assert.Contains(t, out, "n=5")
	assert.Contains(t, out, "███")

	assert.Contains(t, RenderDistribution([]float64{math.NaN()}, 4), "No probabilities")
}
