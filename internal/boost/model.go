package boost

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"sort"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/common"
	"gonum.org/v1/gonum/mat"
)

// ModelVersion is the artifact format written by Save and accepted by Load.
const ModelVersion = 1

// Model is a trained ensemble. It is never modified after training and is
// safe for concurrent use.
type Model struct {
	TrainedAt     time.Time `json:"trained_at"`
	Features      []string  `json:"features"`
	Background    []float64 `json:"background"`
	Trees         []Tree    `json:"trees"`
	Config        Config    `json:"config"`
	BaseMargin    float64   `json:"base_margin"`
	BestIteration int       `json:"best_iteration"`
	Version       int       `json:"version"`
}

// Sigmoid maps a margin to a probability.
func Sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Margin returns the raw log-odds for one feature vector.
func (m *Model) Margin(x []float64) float64 {
	sum := m.BaseMargin
	for i := range m.Trees {
		sum += m.Trees[i].Predict(x)
	}
	return sum
}

// PredictProba returns the probability of the positive class.
func (m *Model) PredictProba(x []float64) float64 {
	return Sigmoid(m.Margin(x))
}

// PredictMatrix scores every row of x.
func (m *Model) PredictMatrix(x mat.Matrix) []float64 {
	r, _ := x.Dims()
	out := make([]float64, r)
	row := make([]float64, len(m.Features))
	for i := range out {
		mat.Row(row, i, x)
		out[i] = m.PredictProba(row)
	}
	return out
}

// CheckFeatures fails unless names match the training feature order exactly.
func (m *Model) CheckFeatures(names []string) error {
	if slices.Equal(m.Features, names) {
		return nil
	}
	return fmt.Errorf("%w: model expects %d features, pipeline produces %d",
		common.ErrArtifactMismatch, len(m.Features), len(names))
}

// FeatureImportance is the total split gain attributed to one feature.
type FeatureImportance struct {
	Feature string  `json:"feature"`
	Gain    float64 `json:"gain"`
}

// Importance returns features by total split gain, largest first. Features
// never used for a split are omitted.
func (m *Model) Importance() []FeatureImportance {
	gains := make([]float64, len(m.Features))
	for _, t := range m.Trees {
		for _, n := range t.Nodes {
			if !n.Leaf {
				gains[n.Feature] += n.Gain
			}
		}
	}
	var out []FeatureImportance
	for i, g := range gains {
		if g > 0 {
			out = append(out, FeatureImportance{Feature: m.Features[i], Gain: g})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Gain > out[j].Gain })
	return out
}

// Save writes the model to path as indented JSON.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return common.WriteFileAtomic(path, data)
}

// Load reads a model saved by Save, rejecting unknown versions.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ArtifactMissing("model", path)
		}
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: failed to decode model: %w", path, err)
	}
	if m.Version != ModelVersion {
		return nil, fmt.Errorf("%w: model version %d, want %d", common.ErrArtifactVersion, m.Version, ModelVersion)
	}
	if len(m.Background) != len(m.Features) {
		return nil, fmt.Errorf("%s: background has %d values for %d features", path, len(m.Background), len(m.Features))
	}
	return &m, nil
}
