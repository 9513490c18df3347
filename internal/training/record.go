package training

import (
	"context"
	"fmt"
	"math"

	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/google/uuid"
)

// Registry stores training runs and the labels they derived.
type Registry interface {
	SaveRun(ctx context.Context, run *model.TrainingRun) error
	SaveLabels(ctx context.Context, runID string, labels []model.CustomerLabel) error
}

// Paths locates the input and outputs of a run.
type Paths struct {
	Data     string
	Pipeline string
	Model    string
}

// Run describes the outcome as a registry record with a fresh ID.
func (o *Outcome) Run(paths Paths) *model.TrainingRun {
	return &model.TrainingRun{
		ID:            uuid.NewString(),
		StartedAt:     o.StartedAt,
		FinishedAt:    o.FinishedAt,
		Snapshot:      o.Snapshot,
		DataPath:      paths.Data,
		PipelinePath:  paths.Pipeline,
		ModelPath:     paths.Model,
		Rows:          o.Rows,
		Customers:     len(o.Labels.Assignments),
		HighRisk:      o.Labels.HighRiskCount(),
		RiskCluster:   o.Labels.RiskCluster,
		BestIteration: o.Model.BestIteration,
		Params:        o.Params(),
		Metrics:       o.Metrics(),
	}
}

// Params lists the settings that shaped the run.
func (o *Outcome) Params() map[string]any {
	b, l := o.Config.Boost, o.Config.Labeling
	return map[string]any{
		"rounds":                b.Rounds,
		"max_depth":             b.MaxDepth,
		"learning_rate":         b.LearningRate,
		"subsample":             b.Subsample,
		"colsample":             b.ColSample,
		"lambda":                b.Lambda,
		"min_child_weight":      b.MinChildWeight,
		"max_bins":              b.MaxBins,
		"early_stopping_rounds": b.EarlyStoppingRounds,
		"validation_fraction":   b.ValidationFraction,
		"seed":                  b.Seed,
		"clusters":              l.Clusters,
		"labeling_seed":         l.Seed,
		"evaluated_on":          o.EvaluatedOn,
	}
}

// Metrics returns the finite evaluation metrics of the run. Undefined values,
// such as ROC-AUC on a single-class set, are left out.
func (o *Outcome) Metrics() map[string]float64 {
	all := map[string]float64{
		"roc_auc":         o.Report.AUC,
		"f1":              o.Report.F1,
		"accuracy":        o.Report.Accuracy,
		"precision":       o.Report.Precision,
		"recall":          o.Report.Recall,
		"log_loss":        o.Report.LogLoss,
		"samples":         float64(o.Report.Samples),
		"true_positive":   float64(o.Report.Confusion.TruePositive),
		"false_positive":  float64(o.Report.Confusion.FalsePositive),
		"true_negative":   float64(o.Report.Confusion.TrueNegative),
		"false_negative":  float64(o.Report.Confusion.FalseNegative),
		"rounds_run":      float64(o.Boost.RoundsRun),
		"best_valid_loss": o.Boost.BestValidLogLoss,
	}
	for k, v := range all {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			delete(all, k)
		}
	}
	return all
}

// Record saves the run and its customer labels to reg.
func Record(ctx context.Context, reg Registry, o *Outcome, paths Paths) (*model.TrainingRun, error) {
	run := o.Run(paths)
	if err := reg.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	if err := reg.SaveLabels(ctx, run.ID, o.Labels.Assignments); err != nil {
		return nil, fmt.Errorf("failed to record labels: %w", err)
	}
	return run, nil
}
