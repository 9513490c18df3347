package rfm

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/model"
)

// ErrNoTimestamps is returned when no transaction carries a parseable timestamp.
var ErrNoTimestamps = errors.New("no parseable transaction timestamps")

const hoursPerDay = 24

// SnapshotDate returns the latest parseable transaction timestamp. Recency is
// measured from it when the caller does not supply a snapshot.
func SnapshotDate(txns []model.Transaction) (time.Time, error) {
	var latest time.Time
	found := false
	for _, tx := range txns {
		ts, ok := model.ParseTimestamp(tx.StartTime)
		if !ok {
			continue
		}
		if !found || ts.After(latest) {
			latest = ts
			found = true
		}
	}
	if !found {
		return time.Time{}, ErrNoTimestamps
	}
	return latest, nil
}

type accumulator struct {
	last     time.Time
	count    int
	monetary float64
	dated    bool
}

// Summarize builds one RFM row per distinct customer, ordered by customer id.
//
// Recency is the whole number of days between snapshot and the customer's
// latest transaction. Transactions with unparseable timestamps still count
// toward frequency and monetary value; a customer with no parseable timestamp
// at all receives the largest recency observed. NaN amounts are skipped.
func Summarize(txns []model.Transaction, snapshot time.Time) ([]model.RFM, error) {
	if len(txns) == 0 {
		return nil, fmt.Errorf("rfm: %w", common.ErrEmptyDataset)
	}

	byCustomer := make(map[string]*accumulator)
	for _, tx := range txns {
		acc, ok := byCustomer[tx.CustomerID]
		if !ok {
			acc = &accumulator{}
			byCustomer[tx.CustomerID] = acc
		}
		acc.count++
		if !math.IsNaN(tx.Amount) {
			acc.monetary += tx.Amount
		}
		if ts, ok := model.ParseTimestamp(tx.StartTime); ok {
			if !acc.dated || ts.After(acc.last) {
				acc.last = ts
				acc.dated = true
			}
		}
	}

	ids := make([]string, 0, len(byCustomer))
	for id := range byCustomer {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]model.RFM, len(ids))
	maxRecency := 0
	for i, id := range ids {
		acc := byCustomer[id]
		rows[i] = model.RFM{
			CustomerID: id,
			Frequency:  acc.count,
			Monetary:   acc.monetary,
			Recency:    -1,
		}
		if acc.dated {
			rows[i].Recency = daysBetween(acc.last, snapshot)
			if rows[i].Recency > maxRecency {
				maxRecency = rows[i].Recency
			}
		}
	}
	for i := range rows {
		if rows[i].Recency < 0 && !byCustomer[rows[i].CustomerID].dated {
			rows[i].Recency = maxRecency
		}
	}
	return rows, nil
}

// daysBetween truncates toward zero, matching whole elapsed days.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / hoursPerDay)
}
