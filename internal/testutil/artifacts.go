package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/Veraticus/credit-risk-model/internal/testutil/transactions"
	"github.com/Veraticus/credit-risk-model/internal/training"
)

// ExampleRecord is the reference input used in end-to-end checks.
var ExampleRecord = model.Transaction{
	CustomerID:      "CustomerId_1999",
	Amount:          95000,
	Value:           10,
	ProductCategory: "loan",
	ChannelID:       "ChannelId_2",
	ProviderID:      "ProviderId_3",
	StartTime:       "2018-11-15 03:12:00+00:00",
}

// QuickConfig trains fast enough for unit tests.
func QuickConfig() training.Config {
	cfg := training.DefaultConfig()
	cfg.Boost.Rounds = 40
	cfg.Boost.LearningRate = 0.3
	return cfg
}

// TrainOutcome fits a pipeline and model on the segmented fixture.
func TrainOutcome(t *testing.T) *training.Outcome {
	t.Helper()
	txns := transactions.NewBuilder(t).WithFixture(transactions.FixtureSegmented).Build()
	out, err := training.Fit(context.Background(), dataset.FromTransactions(txns), QuickConfig())
	if err != nil {
		t.Fatalf("failed to train fixture model: %v", err)
	}
	return out
}

// SavedArtifacts trains on the fixture and writes both artifacts under a
// temporary directory, returning their paths.
func SavedArtifacts(t *testing.T) (pipelinePath, modelPath string) {
	t.Helper()
	out := TrainOutcome(t)
	dir := t.TempDir()
	pipelinePath = filepath.Join(dir, "models", "fitted_pipeline.json")
	modelPath = filepath.Join(dir, "models", "model.json")
	if err := out.Save(pipelinePath, modelPath); err != nil {
		t.Fatalf("failed to save fixture artifacts: %v", err)
	}
	return pipelinePath, modelPath
}
