package training

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/credit-risk-model/internal/boost"
	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/features"
	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/Veraticus/credit-risk-model/internal/rfm"
	"github.com/Veraticus/credit-risk-model/internal/storage"
	"github.com/Veraticus/credit-risk-model/internal/testutil/transactions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quickConfig() Config {
	cfg := DefaultConfig()
	cfg.Boost.Rounds = 60
	cfg.Boost.LearningRate = 0.3
	return cfg
}

func segmented(t *testing.T) (transactions.Transactions, *dataset.Table) {
	t.Helper()
	txns := transactions.NewBuilder(t).WithFixture(transactions.FixtureSegmented).Build()
	return txns, dataset.FromTransactions(txns)
}

func meanProbability(t *testing.T, out *Outcome, txns []model.Transaction) float64 {
	t.Helper()
	m, err := out.Pipeline.Transform(features.FrameFromTransactions(txns))
	require.NoError(t, err)
	probs := out.Model.PredictMatrix(m.Dense())
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	return sum / float64(len(probs))
}

func bySegment(txns transactions.Transactions, segment string) []model.Transaction {
	ids := make(map[string]bool)
	for _, id := range txns.InSegment(segment) {
		ids[id] = true
	}
	var out []model.Transaction
	for _, tx := range txns {
		if ids[tx.CustomerID] {
			out = append(out, tx)
		}
	}
	return out
}

func TestFit_SegmentedFixture(t *testing.T) {
	txns, table := segmented(t)

	var rounds int
	out, err := Fit(context.Background(), table, quickConfig(),
		boost.WithProgress(func(boost.Progress) { rounds++ }))
	require.NoError(t, err)

	assert.Equal(t, len(txns), out.Rows)
	assert.Equal(t, transactions.Reference.AddDate(0, 0, -1), out.Snapshot)
	assert.Equal(t, 12, out.Labels.HighRiskCount())
	for _, id := range txns.InSegment(transactions.SegmentDormant) {
		assert.Equal(t, 1, out.Labels.Labels[id], "customer %s", id)
	}

	assert.Equal(t, out.Pipeline.OutputColumns(), out.Model.Features)
	assert.Equal(t, EvaluatedOnValidation, out.EvaluatedOn)
	assert.Equal(t, len(out.Boost.ValidRows), out.Report.Samples)
	assert.Equal(t, out.Boost.RoundsRun, rounds)
	assert.False(t, out.FinishedAt.Before(out.StartedAt))

	dormant := meanProbability(t, out, bySegment(txns, transactions.SegmentDormant))
	loyal := meanProbability(t, out, bySegment(txns, transactions.SegmentLoyal))
	assert.Greater(t, dormant, loyal)
}

func TestFit_WithoutValidation(t *testing.T) {
	_, table := segmented(t)
	cfg := quickConfig()
	cfg.Boost.ValidationFraction = 0
	cfg.Boost.Rounds = 10

	out, err := Fit(context.Background(), table, cfg)
	require.NoError(t, err)
	assert.Equal(t, EvaluatedOnTraining, out.EvaluatedOn)
	assert.Equal(t, table.Len(), out.Report.Samples)
	assert.NotContains(t, out.Metrics(), "best_valid_loss")
}

func TestFit_Errors(t *testing.T) {
	_, table := segmented(t)

	_, err := Fit(context.Background(), table.Drop(model.ColAmount), quickConfig())
	assert.ErrorIs(t, err, dataset.ErrMissingColumns)

	tiny := dataset.FromTransactions(transactions.NewBuilder(t).WithFixture(transactions.FixtureTiny).Build())
	_, err = Fit(context.Background(), tiny, quickConfig())
	assert.ErrorIs(t, err, rfm.ErrTooFewCustomers)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Fit(ctx, table, quickConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutcome_SaveAndRecord(t *testing.T) {
	_, table := segmented(t)
	out, err := Fit(context.Background(), table, quickConfig())
	require.NoError(t, err)

	dir := t.TempDir()
	paths := Paths{
		Data:     "data/raw/data.csv",
		Pipeline: filepath.Join(dir, "models", "fitted_pipeline.json"),
		Model:    filepath.Join(dir, "models", "model.json"),
	}
	require.NoError(t, out.Save(paths.Pipeline, paths.Model))

	pipeline, err := features.Load(paths.Pipeline)
	require.NoError(t, err)
	mdl, err := boost.Load(paths.Model)
	require.NoError(t, err)
	assert.NoError(t, mdl.CheckFeatures(pipeline.OutputColumns()))

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	run, err := Record(ctx, store, out, paths)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)

	saved, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 36, saved.Customers)
	assert.Equal(t, 12, saved.HighRisk)
	assert.Equal(t, paths.Model, saved.ModelPath)
	assert.Contains(t, saved.Metrics, "roc_auc")
	assert.Equal(t, EvaluatedOnValidation, saved.Params["evaluated_on"])

	high, err := store.GetLabels(ctx, run.ID, true)
	require.NoError(t, err)
	assert.Len(t, high, 12)
}
