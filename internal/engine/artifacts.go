package engine

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/credit-risk-model/internal/boost"
	"github.com/Veraticus/credit-risk-model/internal/explain"
	"github.com/Veraticus/credit-risk-model/internal/features"
)

// Artifacts are the two files a trained run leaves behind.
type Artifacts struct {
	Pipeline *features.Fitted
	Model    *boost.Model
}

// LoadArtifacts reads both artifacts and checks that they belong together.
// A missing file yields common.ErrArtifactNotFound.
func LoadArtifacts(pipelinePath, modelPath string) (*Artifacts, error) {
	pipeline, err := features.Load(pipelinePath)
	if err != nil {
		return nil, err
	}
	mdl, err := boost.Load(modelPath)
	if err != nil {
		return nil, err
	}
	if err := mdl.CheckFeatures(pipeline.OutputColumns()); err != nil {
		return nil, fmt.Errorf("%s and %s: %w", pipelinePath, modelPath, err)
	}

	slog.Info("Loaded artifacts",
		"pipeline", pipelinePath,
		"model", modelPath,
		"features", len(mdl.Features),
		"trees", len(mdl.Trees))
	return &Artifacts{Pipeline: pipeline, Model: mdl}, nil
}

// Explainer returns a sampled Shapley attributor against the model's
// training background.
func (a *Artifacts) Explainer(samples int) *explain.SampledShapley {
	return explain.NewSampledShapley(a.Model.Background, samples, a.Model.Config.Seed)
}
