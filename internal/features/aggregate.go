package features

import (
	"math"

	"github.com/Veraticus/credit-risk-model/internal/model"
	"gonum.org/v1/gonum/stat"
)

// Per-customer aggregate columns.
const (
	AggregateKeyColumn    = model.ColCustomerID
	AggregateSourceColumn = model.ColAmount
	ColTotalAmount        = "TotalAmount"
	ColAvgAmount          = "AvgAmount"
	ColTxnCount           = "TxnCount"
	ColAmountStd          = "AmountStd"
)

// CustomerAggregate joins per-customer amount statistics onto every row of
// that customer. Statistics are computed over the batch being transformed, so
// a single scored record aggregates over itself only. It has no fitted state.
//
// Null amounts are skipped: TotalAmount is 0 and AvgAmount NaN for a customer
// with no amounts, TxnCount counts non-null amounts, and AmountStd is the
// sample standard deviation (NaN with fewer than two amounts).
type CustomerAggregate struct {
	Key    string `json:"key"`
	Source string `json:"source"`
}

func (a *CustomerAggregate) kind() StageKind { return StageCustomerAggregate }

func (a *CustomerAggregate) fit(*Frame) (stage, error) {
	fitted := *a
	return &fitted, nil
}

type customerStats struct {
	total, mean, count, std float64
}

func (a *CustomerAggregate) apply(f *Frame) (*Frame, error) {
	keys, ok := f.Categorical(a.Key)
	if !ok {
		return nil, MissingColumns(a.Key)
	}
	amounts, ok := f.Numeric(a.Source)
	if !ok {
		return nil, MissingColumns(a.Source)
	}

	groups := make(map[string][]float64)
	for i, key := range keys {
		if isNull(amounts[i]) {
			if _, seen := groups[key]; !seen {
				groups[key] = nil
			}
			continue
		}
		groups[key] = append(groups[key], amounts[i])
	}

	stats := make(map[string]customerStats, len(groups))
	for key, values := range groups {
		s := customerStats{count: float64(len(values)), mean: math.NaN(), std: math.NaN()}
		for _, v := range values {
			s.total += v
		}
		if len(values) > 0 {
			s.mean = stat.Mean(values, nil)
		}
		if len(values) > 1 {
			s.std = stat.StdDev(values, nil)
		}
		stats[key] = s
	}

	n := f.Len()
	total := make([]float64, n)
	mean := make([]float64, n)
	count := make([]float64, n)
	std := make([]float64, n)
	for i, key := range keys {
		s := stats[key]
		total[i], mean[i], count[i], std[i] = s.total, s.mean, s.count, s.std
	}

	out := f.derive()
	out.setNumeric(ColTotalAmount, total)
	out.setNumeric(ColAvgAmount, mean)
	out.setNumeric(ColTxnCount, count)
	out.setNumeric(ColAmountStd, std)
	return out, nil
}

func (a *CustomerAggregate) outputs() []string { return nil }
