package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawCSV = `TransactionId,BatchId,CurrencyCode,CountryCode,ProviderId,ProductId,ProductCategory,ChannelId,Amount,Value,TransactionStartTime,PricingStrategy,FraudResult
T1,B1,UGX,256,P1,Prod1,airtime,Android,1000.0,1000.0,2018-11-15 02:18:49,2,0
T2,B2,,256,P2,Prod2,utility,Web,-50.0,50.0,2018-11-15 03:00:00,2,1
T3,,UGX,256,,Prod3,,,,2000.0,invalid,2,
T1,B1,UGX,256,P1,Prod1,airtime,Android,1000.0,1000.0,2018-11-15 02:18:49,2,0
`

func sampleRaw(t *testing.T) *Table {
	t.Helper()
	table, err := Read(strings.NewReader(rawCSV))
	require.NoError(t, err)
	return table
}

func TestClean_RemovesDuplicates(t *testing.T) {
	cleaned, report := Clean(sampleRaw(t))

	ids := cleaned.Column(model.ColTransactionID)
	seen := make(map[string]int)
	for _, id := range ids {
		seen[id]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "transaction %s should appear once", id)
	}
	assert.Equal(t, 1, report.DuplicatesDropped)
	assert.Equal(t, 3, report.RowsOut)
}

func TestClean_FillsMissingCategorical(t *testing.T) {
	cleaned, report := Clean(sampleRaw(t))

	for _, col := range []string{"BatchId", model.ColProviderID, model.ColProductCategory, model.ColChannelID} {
		assert.Contains(t, cleaned.Column(col), UnknownCategory, "column %s", col)
		assert.Equal(t, 1, report.CategoricalFills[col])
	}
}

func TestClean_FillsMissingNumerical(t *testing.T) {
	cleaned, report := Clean(sampleRaw(t))

	for _, col := range CappedColumns {
		for _, cell := range cleaned.Column(col) {
			assert.False(t, math.IsNaN(model.ParseFloat(cell)), "column %s has a gap", col)
		}
	}
	// Amount after dedupe: 1000, -50, missing -> median 475.
	assert.InDelta(t, 475.0, report.Medians[model.ColAmount], 1e-9)
}

func TestClean_DecomposesTimestamps(t *testing.T) {
	cleaned, report := Clean(sampleRaw(t))

	require.True(t, cleaned.Has(ColHour))
	assert.Equal(t, []string{"2", "3", "-1"}, cleaned.Column(ColHour))
	assert.Equal(t, []string{"15", "15", "-1"}, cleaned.Column(ColDay))
	// 2018-11-15 was a Thursday.
	assert.Equal(t, []string{"3", "3", "-1"}, cleaned.Column(ColWeekday))
	assert.Equal(t, 1, report.InvalidTimestamps)
}

func TestClean_OutlierCapping(t *testing.T) {
	header := []string{model.ColTransactionID, model.ColAmount}
	amounts := []string{"10", "12", "11", "13", "9", "10", "11", "12", "500000", "-90000", "14", "10"}
	rows := make([][]string, len(amounts))
	for i, a := range amounts {
		rows[i] = []string{"T" + string(rune('a'+i)), a}
	}

	cleaned, report := Clean(NewTable(header, rows))

	values := make([]float64, 0, cleaned.Len())
	for _, cell := range cleaned.Column(model.ColAmount) {
		values = append(values, model.ParseFloat(cell))
	}
	bounds := IQRBounds(values)
	for _, v := range values {
		assert.True(t, bounds.Contains(v), "%v outside [%v, %v]", v, bounds.Lower, bounds.Upper)
	}
	assert.Equal(t, 2, report.CappedValues[model.ColAmount])
}

func TestClean_FraudResultMode(t *testing.T) {
	cleaned, report := Clean(sampleRaw(t))

	for _, cell := range cleaned.Column(model.ColFraudResult) {
		assert.NotEmpty(t, cell)
	}
	// 0 and 1 tie once the duplicate is dropped; the smaller value wins.
	assert.Equal(t, "0", report.FraudResultMode)
	assert.Equal(t, 1, report.FraudResultFills)
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	raw := sampleRaw(t)
	before := raw.Column(model.ColAmount)
	_, _ = Clean(raw)
	assert.Equal(t, before, raw.Column(model.ColAmount))
	assert.False(t, raw.Has(ColHour))
}

func TestMedian(t *testing.T) {
	assert.True(t, math.IsNaN(Median(nil)))
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
}

func TestMostFrequent(t *testing.T) {
	assert.Equal(t, "b", MostFrequent(map[string]int{"a": 1, "b": 3, "c": 2}))
	assert.Equal(t, "a", MostFrequent(map[string]int{"b": 2, "a": 2}))
}
