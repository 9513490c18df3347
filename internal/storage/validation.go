// Package storage provides the SQLite run registry: training runs, their
// metrics, and the per-customer labels each run derived.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/credit-risk-model/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidRun   = errors.New("invalid training run")
	ErrInvalidLabel = errors.New("invalid customer label")
	ErrNotFound     = errors.New("not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRun validates a training run before it is stored.
func validateRun(run *model.TrainingRun) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if run.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRun)
	}
	if run.StartedAt.IsZero() {
		return fmt.Errorf("%w: missing start time", ErrInvalidRun)
	}
	if run.FinishedAt.Before(run.StartedAt) {
		return fmt.Errorf("%w: finished before it started", ErrInvalidRun)
	}
	if run.PipelinePath == "" || run.ModelPath == "" {
		return fmt.Errorf("%w: missing artifact paths", ErrInvalidRun)
	}
	for name, v := range run.Metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: metric %s is not finite", ErrInvalidRun, name)
		}
	}
	return nil
}

// validateLabels validates the per-customer rows of one run.
func validateLabels(labels []model.CustomerLabel) error {
	for i, l := range labels {
		if strings.TrimSpace(l.CustomerID) == "" {
			return fmt.Errorf("%w: label at index %d has no customer", ErrInvalidLabel, i)
		}
		if l.Frequency < 1 {
			return fmt.Errorf("%w: customer %s has frequency %d", ErrInvalidLabel, l.CustomerID, l.Frequency)
		}
	}
	return nil
}
