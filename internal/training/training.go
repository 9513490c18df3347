// Package training runs the full fit: clean the transaction table, derive the
// proxy label from RFM clusters, fit the feature pipeline and train the
// boosted classifier.
package training

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/boost"
	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/evaluation"
	"github.com/Veraticus/credit-risk-model/internal/features"
	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/Veraticus/credit-risk-model/internal/rfm"
)

// Evaluation sets.
const (
	EvaluatedOnValidation = "validation"
	EvaluatedOnTraining   = "training"
)

// RequiredColumns must be present in the training table.
var RequiredColumns = []string{model.ColCustomerID, model.ColAmount, model.ColStartTime}

// Config controls one training run.
type Config struct {
	// Snapshot is the date recency is measured from. Zero means the latest
	// transaction timestamp in the data.
	Snapshot  time.Time
	Labeling  rfm.Config
	Boost     boost.Config
	SkipClean bool
}

// DefaultConfig returns the labeling and boosting defaults.
func DefaultConfig() Config {
	return Config{
		Labeling: rfm.DefaultConfig(),
		Boost:    boost.DefaultConfig(),
	}
}

// Outcome is everything a run produced.
type Outcome struct {
	StartedAt   time.Time
	FinishedAt  time.Time
	Snapshot    time.Time
	Pipeline    *features.Fitted
	Model       *boost.Model
	Boost       *boost.Result
	Labels      rfm.Result
	Clean       dataset.CleanReport
	EvaluatedOn string
	Report      evaluation.Report
	Config      Config
	Rows        int
}

// Fit trains a pipeline and model on t. The table is cleaned first unless
// cfg.SkipClean is set. The proxy label of each row is the label of its
// customer; FraudResult is never used as a target.
func Fit(ctx context.Context, t *dataset.Table, cfg Config, opts ...boost.Option) (*Outcome, error) {
	out := &Outcome{StartedAt: time.Now().UTC(), Config: cfg}

	if err := t.Require(RequiredColumns...); err != nil {
		return nil, err
	}
	if !cfg.SkipClean {
		t, out.Clean = dataset.Clean(t)
		slog.Info("Cleaned training data",
			"rows_in", out.Clean.RowsIn,
			"rows_out", out.Clean.RowsOut,
			"duplicates", out.Clean.DuplicatesDropped)
	}
	out.Rows = t.Len()

	txns := t.Transactions()
	out.Snapshot = cfg.Snapshot
	if out.Snapshot.IsZero() {
		snap, err := rfm.SnapshotDate(txns)
		if err != nil {
			return nil, fmt.Errorf("failed to determine snapshot date: %w", err)
		}
		out.Snapshot = snap
	}

	summary, err := rfm.Summarize(txns, out.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize customers: %w", err)
	}
	if out.Labels, err = rfm.Label(summary, cfg.Labeling); err != nil {
		return nil, fmt.Errorf("failed to label customers: %w", err)
	}
	slog.Info("Labeled customers",
		"customers", len(summary),
		"high_risk", out.Labels.HighRiskCount(),
		"risk_cluster", out.Labels.RiskCluster,
		"snapshot", out.Snapshot.Format(time.DateOnly))

	frame, err := features.NewFrame(t)
	if err != nil {
		return nil, err
	}
	pipeline, matrix, err := features.FitTransform(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to fit feature pipeline: %w", err)
	}
	out.Pipeline = pipeline

	y := make([]float64, len(txns))
	for i, tx := range txns {
		y[i] = float64(out.Labels.Labels[tx.CustomerID])
	}

	res, err := boost.Train(ctx, matrix.Dense(), y, matrix.Columns(), cfg.Boost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to train classifier: %w", err)
	}
	out.Boost = res
	out.Model = res.Model

	if len(res.ValidRows) > 0 {
		out.EvaluatedOn = EvaluatedOnValidation
		out.Report = evaluation.Evaluate(res.ValidProbs, res.ValidLabels, model.LabelThreshold)
	} else {
		out.EvaluatedOn = EvaluatedOnTraining
		out.Report = evaluation.Evaluate(res.Model.PredictMatrix(matrix.Dense()), y, model.LabelThreshold)
	}

	out.FinishedAt = time.Now().UTC()
	slog.Info("Training complete",
		"rows", out.Rows,
		"features", len(matrix.Columns()),
		"trees", len(out.Model.Trees),
		"roc_auc", out.Report.AUC,
		"f1", out.Report.F1,
		"evaluated_on", out.EvaluatedOn,
		"duration", out.FinishedAt.Sub(out.StartedAt))
	return out, nil
}

// Save writes both artifacts.
func (o *Outcome) Save(pipelinePath, modelPath string) error {
	if err := o.Pipeline.Save(pipelinePath); err != nil {
		return fmt.Errorf("failed to save pipeline: %w", err)
	}
	if err := o.Model.Save(modelPath); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	return nil
}
