package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/common"
)

type pipelineArtifact struct {
	FittedAt      time.Time       `json:"fitted_at"`
	OutputColumns []string        `json:"output_columns"`
	Stages        []stageEnvelope `json:"stages"`
	Version       int             `json:"version"`
	RowsSeen      int             `json:"rows_seen"`
}

// MarshalJSON encodes the fitted state with its format version.
func (p *Fitted) MarshalJSON() ([]byte, error) {
	a := pipelineArtifact{
		Version:       PipelineVersion,
		FittedAt:      p.fittedAt,
		RowsSeen:      p.rowsSeen,
		OutputColumns: p.columns,
	}
	for _, s := range p.stages {
		env, err := encodeStage(s)
		if err != nil {
			return nil, err
		}
		a.Stages = append(a.Stages, env)
	}
	return json.Marshal(a)
}

// UnmarshalJSON decodes a fitted pipeline, rejecting unknown versions.
func (p *Fitted) UnmarshalJSON(data []byte) error {
	var a pipelineArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("failed to decode pipeline: %w", err)
	}
	if a.Version != PipelineVersion {
		return fmt.Errorf("%w: pipeline version %d, want %d", common.ErrArtifactVersion, a.Version, PipelineVersion)
	}

	decoded := Fitted{fittedAt: a.FittedAt, rowsSeen: a.RowsSeen}
	for _, env := range a.Stages {
		s, err := decodeStage(env)
		if err != nil {
			return err
		}
		decoded.stages = append(decoded.stages, s)
		decoded.columns = append(decoded.columns, s.outputs()...)
	}
	if !slices.Equal(decoded.columns, a.OutputColumns) {
		return fmt.Errorf("pipeline artifact is inconsistent: stages produce %d columns, header lists %d",
			len(decoded.columns), len(a.OutputColumns))
	}
	*p = decoded
	return nil
}

// Save writes the pipeline to path as indented JSON, replacing any previous
// artifact atomically.
func (p *Fitted) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pipeline: %w", err)
	}
	return common.WriteFileAtomic(path, data)
}

// Load reads a pipeline saved by Save.
func Load(path string) (*Fitted, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ArtifactMissing("fitted pipeline", path)
		}
		return nil, fmt.Errorf("failed to read pipeline: %w", err)
	}
	var p Fitted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &p, nil
}
