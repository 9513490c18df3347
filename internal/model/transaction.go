// Package model defines the core domain models used throughout the application.
package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Column names of the transaction table as they appear in the source CSV.
const (
	ColCustomerID      = "CustomerId"
	ColTransactionID   = "TransactionId"
	ColAmount          = "Amount"
	ColValue           = "Value"
	ColProductCategory = "ProductCategory"
	ColChannelID       = "ChannelId"
	ColProviderID      = "ProviderId"
	ColStartTime       = "TransactionStartTime"
	ColFraudResult     = "FraudResult"
)

// InputColumns are the seven fields a prediction request carries, in the order
// they are written to the prediction log.
var InputColumns = []string{
	ColCustomerID,
	ColAmount,
	ColValue,
	ColProductCategory,
	ColChannelID,
	ColProviderID,
	ColStartTime,
}

// ErrInvalidTransaction is returned when a transaction fails validation.
var ErrInvalidTransaction = errors.New("invalid transaction")

// Transaction represents a single row of the transaction log.
// Amount is signed (reversals are negative); NaN marks a value that could not
// be parsed from the source.
type Transaction struct {
	CustomerID      string  `json:"CustomerId"`
	TransactionID   string  `json:"TransactionId,omitempty"`
	ProductCategory string  `json:"ProductCategory"`
	ChannelID       string  `json:"ChannelId"`
	ProviderID      string  `json:"ProviderId"`
	StartTime       string  `json:"TransactionStartTime"`
	Amount          float64 `json:"Amount"`
	Value           float64 `json:"Value"`
}

// Validate checks the fields a prediction request must carry.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.CustomerID) == "" {
		return fmt.Errorf("%w: CustomerId is required", ErrInvalidTransaction)
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return fmt.Errorf("%w: Amount must be a finite number", ErrInvalidTransaction)
	}
	if math.IsNaN(t.Value) || math.IsInf(t.Value, 0) {
		return fmt.Errorf("%w: Value must be a finite number", ErrInvalidTransaction)
	}
	if t.Value < 0 {
		return fmt.Errorf("%w: Value must be non-negative, got %.2f", ErrInvalidTransaction, t.Value)
	}
	return nil
}

// Fields returns the input fields in InputColumns order, formatted for CSV.
func (t Transaction) Fields() []string {
	return []string{
		t.CustomerID,
		FormatFloat(t.Amount),
		FormatFloat(t.Value),
		t.ProductCategory,
		t.ChannelID,
		t.ProviderID,
		t.StartTime,
	}
}
