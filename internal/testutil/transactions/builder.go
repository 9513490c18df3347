// Package transactions provides test infrastructure for synthetic transaction
// histories. It offers a fluent API for composing customer segments with
// clearly separated behavior, so labeling and training tests have a known
// answer.
//
// Example usage:
//
//	txns := transactions.NewBuilder(t).
//		WithFixture(transactions.FixtureSegmented).
//		Build()
package transactions

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/model"
)

// Reference is the latest instant any generated transaction can carry.
var Reference = time.Date(2019, time.February, 13, 10, 0, 0, 0, time.UTC)

// TimestampLayout matches the source data's "+00:00" style.
const TimestampLayout = "2006-01-02 15:04:05-07:00"

// Segment describes a group of customers that behave alike.
type Segment struct {
	Name            string
	Categories      []string
	Customers       int
	TxnsPerCustomer int
	DaysAgo         int
	Amount          float64
}

// Builder provides a fluent interface for constructing test transactions.
type Builder interface {
	// WithSegment adds one behavioral segment.
	WithSegment(seg Segment) Builder

	// WithFixture adds every segment of a predefined fixture.
	WithFixture(f Fixture) Builder

	// WithTransaction adds a single hand-written transaction.
	WithTransaction(tx model.Transaction) Builder

	// Build generates the transactions, deterministically.
	Build() Transactions
}

// Transactions is a generated transaction history.
type Transactions []model.Transaction

// Customers returns the distinct customer ids in sorted order.
func (ts Transactions) Customers() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, tx := range ts {
		if _, ok := seen[tx.CustomerID]; ok {
			continue
		}
		seen[tx.CustomerID] = struct{}{}
		ids = append(ids, tx.CustomerID)
	}
	sort.Strings(ids)
	return ids
}

// InSegment returns the customer ids generated for the named segment.
func (ts Transactions) InSegment(name string) []string {
	prefix := "CustomerId_" + name + "_"
	var ids []string
	for _, id := range ts.Customers() {
		if len(id) > len(prefix) && id[:len(prefix)] == prefix {
			ids = append(ids, id)
		}
	}
	return ids
}

type transactionBuilder struct {
	t        *testing.T
	segments []Segment
	extra    []model.Transaction
}

// NewBuilder creates a new transaction builder for the given test.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &transactionBuilder{t: t}
}

func (b *transactionBuilder) WithSegment(seg Segment) Builder {
	if seg.Customers <= 0 || seg.TxnsPerCustomer <= 0 {
		b.t.Fatalf("segment %q needs customers and transactions", seg.Name)
	}
	b.segments = append(b.segments, seg)
	return b
}

func (b *transactionBuilder) WithFixture(f Fixture) Builder {
	for _, seg := range f.Segments() {
		b.WithSegment(seg)
	}
	return b
}

func (b *transactionBuilder) WithTransaction(tx model.Transaction) Builder {
	b.extra = append(b.extra, tx)
	return b
}

func (b *transactionBuilder) Build() Transactions {
	var out Transactions
	seq := 0
	for _, seg := range b.segments {
		cats := seg.Categories
		if len(cats) == 0 {
			cats = []string{"airtime"}
		}
		for c := 0; c < seg.Customers; c++ {
			customer := fmt.Sprintf("CustomerId_%s_%d", seg.Name, c)
			for i := 0; i < seg.TxnsPerCustomer; i++ {
				seq++
				// Small deterministic jitter keeps segments from collapsing to a point.
				amount := seg.Amount * (1 + 0.02*float64((c+i)%5))
				ts := Reference.AddDate(0, 0, -seg.DaysAgo).Add(-time.Duration(c*7+i) * time.Hour)
				out = append(out, model.Transaction{
					CustomerID:      customer,
					TransactionID:   fmt.Sprintf("TransactionId_%d", seq),
					Amount:          amount,
					Value:           amount,
					ProductCategory: cats[(c+i)%len(cats)],
					ChannelID:       fmt.Sprintf("ChannelId_%d", 1+(c+i)%3),
					ProviderID:      fmt.Sprintf("ProviderId_%d", 1+(c+i)%6),
					StartTime:       ts.Format(TimestampLayout),
				})
			}
		}
	}
	return append(out, b.extra...)
}
