// Package engine scores transactions with a fitted feature pipeline and a
// trained classifier.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/explain"
	"github.com/Veraticus/credit-risk-model/internal/features"
	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/Veraticus/credit-risk-model/internal/predlog"
)

// DefaultTopFeatures is how many contributions an explained prediction carries.
const DefaultTopFeatures = 3

// Engine turns raw records into risk predictions. It holds no mutable state
// of its own and is safe for concurrent use when its collaborators are.
type Engine struct {
	pipeline  Transformer
	model     Classifier
	explainer explain.Attributor
	log       PredictionLog
	observe   func(model.Prediction)
	names     []string
	topN      int
}

// Option configures an Engine.
type Option func(*Engine)

// WithExplainer attaches per-feature attributions to Score results.
func WithExplainer(a explain.Attributor) Option {
	return func(e *Engine) { e.explainer = a }
}

// WithLog appends every served prediction to log.
func WithLog(log PredictionLog) Option {
	return func(e *Engine) { e.log = log }
}

// WithTopFeatures sets how many attributions are kept per prediction.
func WithTopFeatures(n int) Option {
	return func(e *Engine) { e.topN = n }
}

// WithObserver calls fn once per served prediction.
func WithObserver(fn func(model.Prediction)) Option {
	return func(e *Engine) { e.observe = fn }
}

type featureChecker interface {
	CheckFeatures(names []string) error
}

// New creates an engine. When the classifier records its training feature
// order, it must match the pipeline's output columns.
func New(pipeline Transformer, classifier Classifier, opts ...Option) (*Engine, error) {
	if pipeline == nil || classifier == nil {
		return nil, fmt.Errorf("%w: pipeline and model are required", common.ErrInvalidInput)
	}
	names := pipeline.OutputColumns()
	if fc, ok := classifier.(featureChecker); ok {
		if err := fc.CheckFeatures(names); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		pipeline: pipeline,
		model:    classifier,
		names:    names,
		topN:     DefaultTopFeatures,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Features returns the model input names in matrix order.
func (e *Engine) Features() []string {
	return append([]string(nil), e.names...)
}

// Score predicts every record. Records must pass model.Transaction.Validate.
// Attribution failures are logged and leave the prediction without
// TopFeatures.
func (e *Engine) Score(ctx context.Context, records []model.Transaction) ([]model.Prediction, error) {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	m, err := e.pipeline.Transform(features.FrameFromTransactions(records))
	if err != nil {
		return nil, fmt.Errorf("failed to transform records: %w", err)
	}

	preds := make([]model.Prediction, len(records))
	for i := range records {
		x := m.Row(i)
		preds[i] = predict(records[i], e.model.PredictProba(x))
		if e.explainer != nil && e.topN > 0 {
			preds[i].TopFeatures = e.explain(ctx, x)
		}
	}

	e.record(ctx, preds)
	slog.Debug("Scored records", "count", len(preds), "duration", time.Since(start))
	return preds, nil
}

// ScoreOne is Score for a single record.
func (e *Engine) ScoreOne(ctx context.Context, record model.Transaction) (model.Prediction, error) {
	preds, err := e.Score(ctx, []model.Transaction{record})
	if err != nil {
		return model.Prediction{}, err
	}
	return preds[0], nil
}

// ScoreTable predicts every row of a batch table and returns it with the
// probability, label and band columns appended. Cells that do not parse are
// imputed rather than rejected. Predictions are not explained.
func (e *Engine) ScoreTable(ctx context.Context, t *dataset.Table) (*dataset.Table, error) {
	frame, err := features.NewFrame(t)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := e.pipeline.Transform(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to transform table: %w", err)
	}

	txns := t.Transactions()
	preds := make([]model.Prediction, t.Len())
	header := append(append([]string(nil), t.Header...), predlog.ColProbability, predlog.ColLabel, predlog.ColBand)
	rows := make([][]string, t.Len())
	for i := range rows {
		preds[i] = predict(txns[i], e.model.PredictProba(m.Row(i)))
		out := predlog.Row(preds[i])
		rows[i] = append(append([]string(nil), t.Rows[i]...), out[len(out)-3:]...)
	}

	e.record(ctx, preds)
	slog.Info("Scored batch", "rows", len(rows))
	return dataset.NewTable(header, rows), nil
}

func predict(record model.Transaction, p float64) model.Prediction {
	return model.Prediction{
		Transaction: record,
		Probability: p,
		Label:       model.LabelFor(p),
		Band:        model.BandFor(p),
	}
}

func (e *Engine) explain(ctx context.Context, x []float64) []model.Contribution {
	contribs, err := e.explainer.Attribute(ctx, e.model, x, e.names)
	if err != nil {
		slog.Warn("Attribution failed, returning prediction without explanation", "error", err)
		return nil
	}
	return explain.Top(contribs, e.topN)
}

// record forwards predictions to the observer and the log. A log failure is
// reported but does not fail the request that produced the predictions.
func (e *Engine) record(ctx context.Context, preds []model.Prediction) {
	if e.observe != nil {
		for _, p := range preds {
			e.observe(p)
		}
	}
	if e.log == nil {
		return
	}
	if err := e.log.Append(ctx, preds); err != nil {
		common.LogError(err, "Failed to append to prediction log", common.Fields{"count": len(preds)})
	}
}
