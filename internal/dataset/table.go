// Package dataset reads, validates and cleans tabular transaction files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/model"
)

// ErrMissingColumns is returned when a table lacks columns a stage needs.
var ErrMissingColumns = errors.New("missing required columns")

// RequiredColumns must be present in any training input.
var RequiredColumns = []string{
	model.ColCustomerID,
	model.ColTransactionID,
	model.ColAmount,
	model.ColValue,
	model.ColProductCategory,
	model.ColChannelID,
	model.ColProviderID,
	model.ColStartTime,
}

// Table is a header plus string rows, as read from a CSV file.
type Table struct {
	index  map[string]int
	Header []string
	Rows   [][]string
}

// NewTable builds a table and indexes its header. Rows shorter than the header
// are padded with empty cells.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{
		Header: append([]string(nil), header...),
		Rows:   rows,
		index:  make(map[string]int, len(header)),
	}
	for i, name := range t.Header {
		t.index[strings.TrimSpace(name)] = i
	}
	for i, row := range t.Rows {
		if len(row) < len(t.Header) {
			padded := make([]string, len(t.Header))
			copy(padded, row)
			t.Rows[i] = padded
		}
	}
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Has reports whether the table has the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Column returns a copy of the named column's cells, or nil if absent.
func (t *Table) Column(name string) []string {
	i := t.Index(name)
	if i < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

// Cell returns the value at row r of the named column; "" when absent.
func (t *Table) Cell(r int, name string) string {
	i := t.Index(name)
	if i < 0 {
		return ""
	}
	return t.Rows[r][i]
}

// Require fails with ErrMissingColumns naming every absent column.
func (t *Table) Require(names ...string) error {
	return MissingColumnsError(t.Missing(names...))
}

// Missing lists the names not present in the table, in argument order.
func (t *Table) Missing(names ...string) []string {
	var missing []string
	for _, name := range names {
		if !t.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// MissingColumnsError wraps ErrMissingColumns with the column names, or returns
// nil when there are none.
func MissingColumnsError(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
}

// Drop returns a table without the named columns.
func (t *Table) Drop(names ...string) *Table {
	drop := make(map[int]bool, len(names))
	for _, name := range names {
		if i := t.Index(name); i >= 0 {
			drop[i] = true
		}
	}
	header := make([]string, 0, len(t.Header))
	for i, name := range t.Header {
		if !drop[i] {
			header = append(header, name)
		}
	}
	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		out := make([]string, 0, len(header))
		for i, cell := range row {
			if !drop[i] {
				out = append(out, cell)
			}
		}
		rows[r] = out
	}
	return NewTable(header, rows)
}

// SetColumn replaces or appends the named column.
func (t *Table) SetColumn(name string, values []string) {
	i := t.Index(name)
	if i < 0 {
		t.Header = append(t.Header, name)
		i = len(t.Header) - 1
		t.index[name] = i
		for r := range t.Rows {
			t.Rows[r] = append(t.Rows[r], "")
		}
	}
	for r := range t.Rows {
		t.Rows[r][i] = values[r]
	}
}

// Transactions converts the table into typed records. Numeric cells that do
// not parse become NaN.
func (t *Table) Transactions() []model.Transaction {
	out := make([]model.Transaction, len(t.Rows))
	for r := range t.Rows {
		out[r] = model.Transaction{
			CustomerID:      t.Cell(r, model.ColCustomerID),
			TransactionID:   t.Cell(r, model.ColTransactionID),
			ProductCategory: t.Cell(r, model.ColProductCategory),
			ChannelID:       t.Cell(r, model.ColChannelID),
			ProviderID:      t.Cell(r, model.ColProviderID),
			StartTime:       t.Cell(r, model.ColStartTime),
			Amount:          model.ParseFloat(t.Cell(r, model.ColAmount)),
			Value:           model.ParseFloat(t.Cell(r, model.ColValue)),
		}
	}
	return out
}

// FromTransactions builds a table with the prediction input columns.
func FromTransactions(txns []model.Transaction) *Table {
	rows := make([][]string, len(txns))
	for i, tx := range txns {
		rows[i] = tx.Fields()
	}
	return NewTable(model.InputColumns, rows)
}

// Read parses a CSV stream whose first record is the header.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header", common.ErrEmptyDataset)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, record)
	}

	return NewTable(header, rows), nil
}

// ReadFile reads a CSV file from disk.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Write renders the table as CSV.
func (t *Table) Write(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// WriteFile writes the table to path, creating parent directories.
func (t *Table) WriteFile(path string) error {
	if err := common.EnsureParentDir(path); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := t.Write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
