package features

import (
	"encoding/json"
	"fmt"
)

// StageKind names one of the fixed set of pipeline stages.
type StageKind string

// Stage kinds, in the order the default pipeline runs them.
const (
	StageDateParts         StageKind = "date_parts"
	StageCustomerAggregate StageKind = "customer_aggregate"
	StageCategorical       StageKind = "categorical_encode"
	StageNumeric           StageKind = "numeric_encode"
)

// stage is implemented only by the types in this package. fit learns state
// from a training frame and returns the fitted copy; apply uses that state and
// never changes it.
type stage interface {
	kind() StageKind
	fit(f *Frame) (stage, error)
	apply(f *Frame) (*Frame, error)
	// outputs lists the matrix columns the stage contributes, in order.
	outputs() []string
}

// defaultStages is the unfitted pipeline. Order matters: date parts and
// customer aggregates must exist before the encoders read them.
func defaultStages() []stage {
	return []stage{
		&DateParts{Source: DateSourceColumn},
		&CustomerAggregate{Key: AggregateKeyColumn, Source: AggregateSourceColumn},
		&CategoricalEncoder{Columns: append([]string(nil), CategoricalFeatures...)},
		&NumericEncoder{Columns: append([]string(nil), NumericFeatures...)},
	}
}

type stageEnvelope struct {
	Kind  StageKind       `json:"kind"`
	State json.RawMessage `json:"state"`
}

func encodeStage(s stage) (stageEnvelope, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return stageEnvelope{}, fmt.Errorf("failed to encode %s stage: %w", s.kind(), err)
	}
	return stageEnvelope{Kind: s.kind(), State: raw}, nil
}

func decodeStage(env stageEnvelope) (stage, error) {
	var s stage
	switch env.Kind {
	case StageDateParts:
		s = &DateParts{}
	case StageCustomerAggregate:
		s = &CustomerAggregate{}
	case StageCategorical:
		s = &CategoricalEncoder{}
	case StageNumeric:
		s = &NumericEncoder{}
	default:
		return nil, fmt.Errorf("unknown stage kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.State, s); err != nil {
		return nil, fmt.Errorf("failed to decode %s stage: %w", env.Kind, err)
	}
	return s, nil
}
