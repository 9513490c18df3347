// Package features turns transaction batches into model-ready matrices.
//
// A pipeline is an ordered list of stages. Fit learns each stage's state from
// a training batch and returns an immutable Fitted value; Transform replays the
// same stages with that frozen state on any later batch, so training and
// serving see identical features.
package features

import (
	"fmt"
	"sort"

	"github.com/Veraticus/credit-risk-model/internal/dataset"
	"github.com/Veraticus/credit-risk-model/internal/model"
)

// ErrMissingColumns is returned when a batch lacks the columns every stage needs.
var ErrMissingColumns = dataset.ErrMissingColumns

// MissingColumns wraps ErrMissingColumns with the column names.
func MissingColumns(names ...string) error {
	return dataset.MissingColumnsError(names)
}

// FrameColumns must be present to build a Frame.
var FrameColumns = []string{model.ColCustomerID, model.ColAmount}

// numericSource lists the raw columns parsed as numbers; every other column is
// carried as text.
var numericSource = map[string]bool{
	model.ColAmount: true,
	model.ColValue:  true,
}

// Frame is a columnar batch. Numeric nulls are NaN and categorical nulls are "".
// Stages never modify a frame in place; they return a new one.
type Frame struct {
	numeric     map[string][]float64
	categorical map[string][]string
	rows        int
}

func newFrame(rows int) *Frame {
	return &Frame{
		rows:        rows,
		numeric:     make(map[string][]float64),
		categorical: make(map[string][]string),
	}
}

// NewFrame builds a frame from a table. Amount and Value are coerced to
// numbers, with unparseable cells becoming NaN.
func NewFrame(t *dataset.Table) (*Frame, error) {
	if err := t.Require(FrameColumns...); err != nil {
		return nil, err
	}
	f := newFrame(t.Len())
	for _, name := range t.Header {
		cells := t.Column(name)
		if numericSource[name] {
			values := make([]float64, len(cells))
			for i, c := range cells {
				values[i] = model.ParseFloat(c)
			}
			f.numeric[name] = values
			continue
		}
		f.categorical[name] = cells
	}
	return f, nil
}

// FrameFromTransactions builds a frame from typed records.
func FrameFromTransactions(txns []model.Transaction) *Frame {
	f := newFrame(len(txns))
	text := map[string]func(model.Transaction) string{
		model.ColCustomerID:      func(tx model.Transaction) string { return tx.CustomerID },
		model.ColProductCategory: func(tx model.Transaction) string { return tx.ProductCategory },
		model.ColChannelID:       func(tx model.Transaction) string { return tx.ChannelID },
		model.ColProviderID:      func(tx model.Transaction) string { return tx.ProviderID },
		model.ColStartTime:       func(tx model.Transaction) string { return tx.StartTime },
	}
	for name, get := range text {
		col := make([]string, len(txns))
		for i, tx := range txns {
			col[i] = get(tx)
		}
		f.categorical[name] = col
	}
	amounts := make([]float64, len(txns))
	values := make([]float64, len(txns))
	for i, tx := range txns {
		amounts[i] = tx.Amount
		values[i] = tx.Value
	}
	f.numeric[model.ColAmount] = amounts
	f.numeric[model.ColValue] = values
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.rows
}

// Numeric returns the named numeric column. The slice must not be modified.
func (f *Frame) Numeric(name string) ([]float64, bool) {
	col, ok := f.numeric[name]
	return col, ok
}

// Categorical returns the named text column. The slice must not be modified.
func (f *Frame) Categorical(name string) ([]string, bool) {
	col, ok := f.categorical[name]
	return col, ok
}

// Columns lists every column name, sorted.
func (f *Frame) Columns() []string {
	names := make([]string, 0, len(f.numeric)+len(f.categorical))
	for name := range f.numeric {
		names = append(names, name)
	}
	for name := range f.categorical {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// numericOrNull returns the named column, or an all-NaN column when absent.
func (f *Frame) numericOrNull(name string) []float64 {
	if col, ok := f.numeric[name]; ok {
		return col
	}
	return nullNumeric(f.rows)
}

// categoricalOrNull returns the named column, or an all-null column when absent.
func (f *Frame) categoricalOrNull(name string) []string {
	if col, ok := f.categorical[name]; ok {
		return col
	}
	return make([]string, f.rows)
}

// derive returns a shallow copy that can take new columns without touching f.
func (f *Frame) derive() *Frame {
	out := newFrame(f.rows)
	for k, v := range f.numeric {
		out.numeric[k] = v
	}
	for k, v := range f.categorical {
		out.categorical[k] = v
	}
	return out
}

func (f *Frame) setNumeric(name string, values []float64) {
	if len(values) != f.rows {
		panic(fmt.Sprintf("features: column %s has %d rows, frame has %d", name, len(values), f.rows))
	}
	delete(f.categorical, name)
	f.numeric[name] = values
}

func (f *Frame) drop(name string) {
	delete(f.numeric, name)
	delete(f.categorical, name)
}
