package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/Veraticus/credit-risk-model/internal/predlog"
	"github.com/Veraticus/credit-risk-model/internal/testutil/transactions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	require.NoError(t, err, out.String())
	return out.String()
}

func TestCommandsEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := func(name string) string { return filepath.Join(dir, name) }

	t.Setenv("HOME", dir)
	t.Setenv("RISK_PATHS_PREDICTION_LOG", path("logs/predictions_log.csv"))
	t.Setenv("RISK_PATHS_DEFINITIONS", path("missing_definitions.csv"))

	txns := transactions.NewBuilder(t).WithFixture(transactions.FixtureSegmented).Build()
	require.NoError(t, dataset.FromTransactions(txns).WriteFile(path("raw.csv")))

	global := []string{
		"--pipeline", path("models/fitted_pipeline.json"),
		"--model", path("models/model.json"),
		"--db", path("risk.db"),
		"--log-level", "warn",
	}
	run := func(args ...string) string {
		return execute(t, append(args, global...)...)
	}

	out := run("clean", "--input", path("raw.csv"), "--output", path("cleaned.csv"))
	assert.Contains(t, out, "Cleaning Summary")
	cleaned, err := dataset.ReadFile(path("cleaned.csv"))
	require.NoError(t, err)
	assert.Positive(t, cleaned.Len())
	assert.LessOrEqual(t, cleaned.Len(), len(txns))
	assert.True(t, cleaned.Has(dataset.ColHour))

	out = run("train", "--data", path("raw.csv"), "--rounds", "30")
	assert.Contains(t, out, "Model Evaluation")
	assert.Contains(t, out, "Run recorded as")
	assert.FileExists(t, path("models/fitted_pipeline.json"))
	assert.FileExists(t, path("models/model.json"))

	out = run("score")
	assert.Contains(t, out, "CustomerId_1999")
	assert.Contains(t, out, "Risk band")

	out = run("predict", "--input", path("raw.csv"), "--output", path("predictions.csv"))
	assert.Contains(t, out, "Distribution of Risk Probabilities")
	scored, err := dataset.ReadFile(path("predictions.csv"))
	require.NoError(t, err)
	assert.Equal(t, len(txns), scored.Len())
	assert.True(t, scored.Has(predlog.ColBand))

	out = run("export-high-risk", "--input", path("predictions.csv"), "--output", path("high.csv"), "--threshold", "0.5")
	assert.Contains(t, out, "Exported")
	high, err := dataset.ReadFile(path("high.csv"))
	require.NoError(t, err)
	for r := 0; r < high.Len(); r++ {
		assert.Greater(t, model.ParseFloat(high.Cell(r, predlog.ColProbability)), 0.5)
	}

	out = run("runs")
	assert.Contains(t, out, "Customers")
	out = run("runs", "show", "--high-risk")
	assert.Contains(t, out, "roc_auc")

	logged, err := os.ReadFile(path("logs/predictions_log.csv"))
	require.NoError(t, err)
	assert.NotEmpty(t, logged)
}
