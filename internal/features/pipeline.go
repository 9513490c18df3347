package features

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/common"
	"gonum.org/v1/gonum/mat"
)

// PipelineVersion is the artifact format written by Save and accepted by Load.
const PipelineVersion = 1

// Fitted is a pipeline whose stages have learned their state. It is immutable
// and safe for concurrent Transform calls.
type Fitted struct {
	fittedAt time.Time
	stages   []stage
	columns  []string
	rowsSeen int
}

// Fit learns every stage's state from a training frame, applying each fitted
// stage before fitting the next.
func Fit(f *Frame) (*Fitted, error) {
	if f.Len() == 0 {
		return nil, fmt.Errorf("fit pipeline: %w", common.ErrEmptyDataset)
	}
	if err := requireFrame(f); err != nil {
		return nil, err
	}

	p := &Fitted{fittedAt: time.Now().UTC(), rowsSeen: f.Len()}
	cur := f
	for _, s := range defaultStages() {
		fitted, err := s.fit(cur)
		if err != nil {
			return nil, fmt.Errorf("fit %s: %w", s.kind(), err)
		}
		if cur, err = fitted.apply(cur); err != nil {
			return nil, fmt.Errorf("apply %s: %w", s.kind(), err)
		}
		p.stages = append(p.stages, fitted)
		p.columns = append(p.columns, fitted.outputs()...)
	}

	slog.Debug("Fitted feature pipeline", "rows", f.Len(), "features", len(p.columns))
	return p, nil
}

// FitTransform fits a pipeline and transforms the same frame with it.
func FitTransform(f *Frame) (*Fitted, *Matrix, error) {
	p, err := Fit(f)
	if err != nil {
		return nil, nil, err
	}
	m, err := p.Transform(f)
	if err != nil {
		return nil, nil, err
	}
	return p, m, nil
}

// Transform applies the frozen stages to f. The result always has exactly
// OutputColumns columns; unseen categories encode as zeros and nulls take the
// fitted fill values.
func (p *Fitted) Transform(f *Frame) (*Matrix, error) {
	if err := requireFrame(f); err != nil {
		return nil, err
	}
	cur := f
	for _, s := range p.stages {
		var err error
		if cur, err = s.apply(cur); err != nil {
			return nil, fmt.Errorf("apply %s: %w", s.kind(), err)
		}
	}

	m := &Matrix{columns: p.OutputColumns(), rows: f.Len()}
	if f.Len() == 0 {
		return m, nil
	}
	m.data = mat.NewDense(f.Len(), len(p.columns), nil)
	for j, name := range p.columns {
		col, ok := cur.Numeric(name)
		if !ok {
			return nil, fmt.Errorf("pipeline produced no column %s", name)
		}
		m.data.SetCol(j, col)
	}
	return m, nil
}

// OutputColumns returns the matrix column names in order.
func (p *Fitted) OutputColumns() []string {
	return append([]string(nil), p.columns...)
}

// FittedAt returns when the pipeline was fitted.
func (p *Fitted) FittedAt() time.Time {
	return p.fittedAt
}

// RowsSeen returns the number of rows the pipeline was fitted on.
func (p *Fitted) RowsSeen() int {
	return p.rowsSeen
}

// Stages lists the stage kinds in execution order.
func (p *Fitted) Stages() []StageKind {
	kinds := make([]StageKind, len(p.stages))
	for i, s := range p.stages {
		kinds[i] = s.kind()
	}
	return kinds
}

func requireFrame(f *Frame) error {
	var missing []string
	if _, ok := f.Categorical(AggregateKeyColumn); !ok {
		missing = append(missing, AggregateKeyColumn)
	}
	if _, ok := f.Numeric(AggregateSourceColumn); !ok {
		missing = append(missing, AggregateSourceColumn)
	}
	return MissingColumns(missing...)
}

// Matrix is a transformed batch: one row per input row, one column per
// pipeline output.
type Matrix struct {
	data    *mat.Dense
	columns []string
	rows    int
}

// NewMatrix wraps a dense matrix with column names.
func NewMatrix(data *mat.Dense, columns []string) *Matrix {
	r, _ := data.Dims()
	return &Matrix{data: data, columns: append([]string(nil), columns...), rows: r}
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int {
	return m.rows
}

// Columns returns the column names.
func (m *Matrix) Columns() []string {
	return append([]string(nil), m.columns...)
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.data)
}

// Dense returns the underlying matrix, or nil for an empty batch.
func (m *Matrix) Dense() *mat.Dense {
	return m.data
}
