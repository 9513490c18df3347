// Package predlog keeps an append-only CSV record of served predictions.
package predlog

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/model"
)

// Output columns appended after the input fields.
const (
	ColProbability = "risk_probability"
	ColLabel       = "predicted_label"
	ColBand        = "risk_band"
)

// Header is the first line of every log file.
var Header = append(append([]string(nil), model.InputColumns...), ColProbability, ColLabel, ColBand)

// Log appends prediction rows to a CSV file. Each Append is written with a
// single write call on a file opened in append mode, and calls are serialized,
// so rows from concurrent requests never interleave.
type Log struct {
	f    *os.File
	path string
	mu   sync.Mutex
}

// Open opens or creates the log at path, creating parent directories.
func Open(path string) (*Log, error) {
	if err := common.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to open prediction log: %w", err)
	}
	return &Log{f: f, path: path}, nil
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// Append writes one row per prediction. The header is written first when the
// file is empty.
func (l *Log) Append(ctx context.Context, preds []model.Prediction) error {
	if len(preds) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	info, err := l.f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat prediction log: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("failed to encode header: %w", err)
		}
	}
	for _, p := range preds {
		if err := w.Write(Row(p)); err != nil {
			return fmt.Errorf("failed to encode prediction: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to encode predictions: %w", err)
	}

	if _, err := l.f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to append to prediction log: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// Row renders a prediction in Header order.
func Row(p model.Prediction) []string {
	return append(p.Transaction.Fields(),
		model.FormatFloat(p.Probability),
		strconv.Itoa(p.Label),
		string(p.Band),
	)
}
