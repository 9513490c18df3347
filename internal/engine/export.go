package engine

import (
	"fmt"

	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/Veraticus/credit-risk-model/internal/predlog"
)

// Probabilities reads the risk_probability column of a scored table.
// Cells that do not parse are NaN.
func Probabilities(scored *dataset.Table) ([]float64, error) {
	if err := scored.Require(predlog.ColProbability); err != nil {
		return nil, fmt.Errorf("not a scored table: %w", err)
	}
	cells := scored.Column(predlog.ColProbability)
	out := make([]float64, len(cells))
	for i, c := range cells {
		out[i] = model.ParseFloat(c)
	}
	return out, nil
}

// HighRisk keeps the rows of a scored table whose probability is strictly
// above threshold.
func HighRisk(scored *dataset.Table, threshold float64) (*dataset.Table, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold %v outside [0, 1]", threshold)
	}
	probs, err := Probabilities(scored)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for i, p := range probs {
		if p > threshold {
			rows = append(rows, append([]string(nil), scored.Rows[i]...))
		}
	}
	return dataset.NewTable(scored.Header, rows), nil
}
