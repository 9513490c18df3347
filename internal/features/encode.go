package features

import (
	"sort"
	"strings"

	"github.com/Veraticus/credit-risk-model/internal/model"
)

// Columns fed to the model.
var (
	CategoricalFeatures = []string{model.ColProductCategory, model.ColChannelID, model.ColProviderID}
	NumericFeatures     = []string{
		model.ColAmount, model.ColValue,
		ColTotalAmount, ColAvgAmount, ColTxnCount, ColAmountStd,
	}
)

// CategoricalEncoder fills nulls with the training mode and expands each column
// into one indicator per value seen during fit. Vocabularies are sorted.
type CategoricalEncoder struct {
	Modes      map[string]string   `json:"modes"`
	Vocabulary map[string][]string `json:"vocabulary"`
	Impute     string              `json:"impute"`
	Encode     string              `json:"encode"`
	Columns    []string            `json:"columns"`
}

func (e *CategoricalEncoder) kind() StageKind { return StageCategorical }

func (e *CategoricalEncoder) fit(f *Frame) (stage, error) {
	fitted := &CategoricalEncoder{
		Columns:    append([]string(nil), e.Columns...),
		Impute:     PolicyMostFrequent,
		Encode:     PolicyOneHotIgnore,
		Modes:      make(map[string]string, len(e.Columns)),
		Vocabulary: make(map[string][]string, len(e.Columns)),
	}
	for _, col := range e.Columns {
		raw := f.categoricalOrNull(col)
		mode := ImputeMostFrequent(raw)
		seen := map[string]struct{}{}
		for _, v := range imputeText(raw, mode) {
			seen[v] = struct{}{}
		}
		vocab := make([]string, 0, len(seen))
		for v := range seen {
			vocab = append(vocab, v)
		}
		sort.Strings(vocab)
		fitted.Modes[col] = mode
		fitted.Vocabulary[col] = vocab
	}
	return fitted, nil
}

func (e *CategoricalEncoder) apply(f *Frame) (*Frame, error) {
	out := f.derive()
	for _, col := range e.Columns {
		vocab := e.Vocabulary[col]
		values := imputeText(f.categoricalOrNull(col), e.Modes[col])

		indicators := make([][]float64, len(vocab))
		for j := range indicators {
			indicators[j] = make([]float64, f.Len())
		}
		row := make([]float64, len(vocab))
		for i, v := range values {
			EncodeOneHotIgnoreUnknown(v, vocab, row)
			for j, x := range row {
				indicators[j][i] = x
			}
		}
		for j, v := range vocab {
			out.setNumeric(indicatorName(col, v), indicators[j])
		}
	}
	return out, nil
}

func (e *CategoricalEncoder) outputs() []string {
	var names []string
	for _, col := range e.Columns {
		for _, v := range e.Vocabulary[col] {
			names = append(names, indicatorName(col, v))
		}
	}
	return names
}

func indicatorName(col, value string) string {
	return col + "_" + value
}

func imputeText(values []string, fill string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			out[i] = fill
			continue
		}
		out[i] = v
	}
	return out
}

// NumericEncoder fills nulls with the training median, then standardizes with
// the training mean and deviation. Columns are replaced in place on the frame.
type NumericEncoder struct {
	Medians map[string]float64 `json:"medians"`
	Means   map[string]float64 `json:"means"`
	Stds    map[string]float64 `json:"stds"`
	Impute  string             `json:"impute"`
	Scale   string             `json:"scale"`
	Columns []string           `json:"columns"`
}

func (e *NumericEncoder) kind() StageKind { return StageNumeric }

func (e *NumericEncoder) fit(f *Frame) (stage, error) {
	fitted := &NumericEncoder{
		Columns: append([]string(nil), e.Columns...),
		Impute:  PolicyMedian,
		Scale:   PolicyStandard,
		Medians: make(map[string]float64, len(e.Columns)),
		Means:   make(map[string]float64, len(e.Columns)),
		Stds:    make(map[string]float64, len(e.Columns)),
	}
	for _, col := range e.Columns {
		raw := f.numericOrNull(col)
		median := ImputeMedian(raw)
		mean, std := ScaleStandard(imputeNumeric(raw, median))
		fitted.Medians[col] = median
		fitted.Means[col] = mean
		fitted.Stds[col] = std
	}
	return fitted, nil
}

func (e *NumericEncoder) apply(f *Frame) (*Frame, error) {
	out := f.derive()
	for _, col := range e.Columns {
		values := imputeNumeric(f.numericOrNull(col), e.Medians[col])
		mean, std := e.Means[col], e.Stds[col]
		for i, v := range values {
			values[i] = (v - mean) / std
		}
		out.setNumeric(col, values)
	}
	return out, nil
}

func (e *NumericEncoder) outputs() []string {
	return append([]string(nil), e.Columns...)
}

// imputeNumeric returns a new slice with nulls replaced by fill.
func imputeNumeric(values []float64, fill float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if isNull(v) {
			out[i] = fill
			continue
		}
		out[i] = v
	}
	return out
}
