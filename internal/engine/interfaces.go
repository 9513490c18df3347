package engine

import (
	"context"

	"github.com/Veraticus/credit-risk-model/internal/features"
	"github.com/Veraticus/credit-risk-model/internal/model"
)

// Transformer defines the contract for turning raw records into model inputs.
type Transformer interface {
	Transform(f *features.Frame) (*features.Matrix, error)
	OutputColumns() []string
}

// Classifier defines the contract for scoring one feature vector.
type Classifier interface {
	Margin(x []float64) float64
	PredictProba(x []float64) float64
}

// PredictionLog records every prediction the engine serves.
type PredictionLog interface {
	Append(ctx context.Context, preds []model.Prediction) error
}
