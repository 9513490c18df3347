package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/model"
	"gonum.org/v1/gonum/stat"
)

// Derived columns added by Clean. Unparseable timestamps get SentinelInvalid.
const (
	ColHour    = "TransactionHour"
	ColDay     = "TransactionDay"
	ColWeekday = "TransactionWeekday"

	// UnknownCategory fills missing categorical cells.
	UnknownCategory = "Unknown"
	// SentinelInvalid marks a date part that could not be derived.
	SentinelInvalid = -1
	// IQRMultiplier scales the interquartile range into capping bounds.
	IQRMultiplier = 1.5

	maxCapPasses = 32
)

// CategoricalColumns are filled with UnknownCategory when present.
var CategoricalColumns = []string{
	"BatchId", "CurrencyCode", "CountryCode", model.ColProviderID,
	"ProductId", model.ColProductCategory, model.ColChannelID, "PricingStrategy",
}

// CappedColumns are median-filled and IQR-capped when present.
var CappedColumns = []string{model.ColAmount, model.ColValue}

// Bounds is the closed interval numeric values were capped to.
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether v lies in the interval.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

// CleanReport describes what Clean changed.
type CleanReport struct {
	CategoricalFills  map[string]int
	Medians           map[string]float64
	Caps              map[string]Bounds
	CappedValues      map[string]int
	FraudResultMode   string
	RowsIn            int
	RowsOut           int
	DuplicatesDropped int
	InvalidTimestamps int
	FraudResultFills  int
}

// Clean applies the preprocessing policy to a raw transaction table:
// exact duplicate rows are dropped, timestamps are decomposed into hour, day
// and weekday (SentinelInvalid when unparseable), categorical gaps become
// UnknownCategory, Amount and Value gaps take the column median and are then
// capped to IQR bounds, and a missing FraudResult takes the column mode.
// The input table is not modified.
func Clean(in *Table) (*Table, CleanReport) {
	report := CleanReport{
		RowsIn:           in.Len(),
		CategoricalFills: make(map[string]int),
		Medians:          make(map[string]float64),
		Caps:             make(map[string]Bounds),
		CappedValues:     make(map[string]int),
	}

	t := dropDuplicates(in)
	report.DuplicatesDropped = in.Len() - t.Len()

	if t.Has(model.ColStartTime) {
		report.InvalidTimestamps = decomposeTimestamps(t)
	}

	for _, col := range CategoricalColumns {
		if !t.Has(col) {
			continue
		}
		report.CategoricalFills[col] = fillCategorical(t, col, UnknownCategory)
	}

	for _, col := range CappedColumns {
		if !t.Has(col) {
			continue
		}
		median, bounds, capped := fillAndCap(t, col)
		report.Medians[col] = median
		report.Caps[col] = bounds
		report.CappedValues[col] = capped
	}

	if t.Has(model.ColFraudResult) {
		report.FraudResultMode, report.FraudResultFills = fillMode(t, model.ColFraudResult)
	}

	report.RowsOut = t.Len()
	return t, report
}

// dropDuplicates keeps the first occurrence of every exact row.
func dropDuplicates(in *Table) *Table {
	seen := make(map[string]struct{}, in.Len())
	rows := make([][]string, 0, in.Len())
	for _, row := range in.Rows {
		key := strings.Join(row, "\x1f")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, append([]string(nil), row...))
	}
	return NewTable(in.Header, rows)
}

func decomposeTimestamps(t *Table) int {
	n := t.Len()
	hours := make([]string, n)
	days := make([]string, n)
	weekdays := make([]string, n)
	invalid := 0

	ts := t.Column(model.ColStartTime)
	for r, raw := range ts {
		parsed, ok := model.ParseTimestamp(raw)
		if !ok {
			invalid++
			ts[r] = ""
			hours[r] = strconv.Itoa(SentinelInvalid)
			days[r] = strconv.Itoa(SentinelInvalid)
			weekdays[r] = strconv.Itoa(SentinelInvalid)
			continue
		}
		hours[r] = strconv.Itoa(parsed.Hour())
		days[r] = strconv.Itoa(parsed.Day())
		weekdays[r] = strconv.Itoa(Weekday(parsed.Weekday()))
	}

	t.SetColumn(model.ColStartTime, ts)
	t.SetColumn(ColHour, hours)
	t.SetColumn(ColDay, days)
	t.SetColumn(ColWeekday, weekdays)
	return invalid
}

// Weekday numbers days Monday=0 through Sunday=6.
func Weekday(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func fillCategorical(t *Table, col, fill string) int {
	values := t.Column(col)
	filled := 0
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			values[i] = fill
			filled++
		}
	}
	t.SetColumn(col, values)
	return filled
}

func fillAndCap(t *Table, col string) (float64, Bounds, int) {
	raw := t.Column(col)
	values := make([]float64, len(raw))
	present := make([]float64, 0, len(raw))
	for i, cell := range raw {
		values[i] = model.ParseFloat(cell)
		if !math.IsNaN(values[i]) {
			present = append(present, values[i])
		}
	}

	median := Median(present)
	if math.IsNaN(median) {
		median = 0
	}
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = median
		}
	}

	bounds, capped := CapIQR(values)

	out := make([]string, len(values))
	for i, v := range values {
		out[i] = model.FormatFloat(v)
	}
	t.SetColumn(col, out)
	return median, bounds, capped
}

// CapIQR clips values in place to [Q1 - 1.5*IQR, Q3 + 1.5*IQR]. Capping can
// move the quartiles when they interpolate against a clipped extreme, so the
// clip is repeated until the bounds computed on the result contain every value.
// It returns the final bounds and the number of values changed.
func CapIQR(values []float64) (Bounds, int) {
	var bounds Bounds
	changed := make(map[int]struct{})
	for pass := 0; pass < maxCapPasses; pass++ {
		bounds = IQRBounds(values)
		moved := false
		for i, v := range values {
			clipped := math.Min(math.Max(v, bounds.Lower), bounds.Upper)
			if clipped != v {
				values[i] = clipped
				changed[i] = struct{}{}
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return bounds, len(changed)
}

// IQRBounds computes the capping interval of values.
func IQRBounds(values []float64) Bounds {
	q1, q3 := Quartiles(values)
	iqr := q3 - q1
	return Bounds{
		Lower: q1 - IQRMultiplier*iqr,
		Upper: q3 + IQRMultiplier*iqr,
	}
}

// Quartiles returns the first and third quartiles using gonum's linear
// interpolation estimator. NaN values must already be removed.
func Quartiles(values []float64) (float64, float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		stat.Quantile(0.75, stat.LinInterp, sorted, nil)
}

// Median is the midpoint of the sorted values, averaging the two middle values
// for even counts. It returns NaN for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// fillMode replaces empty cells with the most frequent value (ties resolve to
// the smallest value). Nothing changes when no cell is empty.
func fillMode(t *Table, col string) (string, int) {
	values := t.Column(col)
	counts := make(map[string]int)
	missing := 0
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			missing++
			continue
		}
		counts[v]++
	}
	if missing == 0 || len(counts) == 0 {
		return "", 0
	}

	mode := MostFrequent(counts)
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			values[i] = mode
		}
	}
	t.SetColumn(col, values)
	return mode, missing
}

// MostFrequent returns the key with the highest count; ties go to the
// lexicographically smallest key.
func MostFrequent(counts map[string]int) string {
	best := ""
	bestCount := -1
	for value, count := range counts {
		if count > bestCount || (count == bestCount && value < best) {
			best = value
			bestCount = count
		}
	}
	return best
}
