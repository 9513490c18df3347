// Package boost trains and applies gradient-boosted decision trees for binary
// classification with logistic loss.
//
// Trees are grown on histogram-binned features using first and second order
// gradients. Each round's tree is shrunk by the learning rate, and training
// stops early once validation log-loss has not improved for a configured
// number of rounds.
package boost

import (
	"errors"
	"fmt"
)

// MaxBinsLimit is the largest supported histogram size.
const MaxBinsLimit = 256

// ErrSingleClass is returned when the labels do not contain both classes.
var ErrSingleClass = errors.New("training labels contain a single class")

// Config holds the boosting hyperparameters.
type Config struct {
	Rounds              int     `json:"rounds"`
	MaxDepth            int     `json:"max_depth"`
	LearningRate        float64 `json:"learning_rate"`
	Subsample           float64 `json:"subsample"`
	ColSample           float64 `json:"colsample"`
	Lambda              float64 `json:"lambda"`
	MinChildWeight      float64 `json:"min_child_weight"`
	MaxBins             int     `json:"max_bins"`
	EarlyStoppingRounds int     `json:"early_stopping_rounds"`
	ValidationFraction  float64 `json:"validation_fraction"`
	Seed                int64   `json:"seed"`
}

// DefaultConfig returns 500 rounds of depth-5 trees at learning rate 0.05 with
// 80% row and column sampling and early stopping after 20 stale rounds.
func DefaultConfig() Config {
	return Config{
		Rounds:              500,
		MaxDepth:            5,
		LearningRate:        0.05,
		Subsample:           0.8,
		ColSample:           0.8,
		Lambda:              1,
		MinChildWeight:      1,
		MaxBins:             MaxBinsLimit,
		EarlyStoppingRounds: 20,
		ValidationFraction:  0.2,
		Seed:                42,
	}
}

// Validate checks the hyperparameters.
func (c Config) Validate() error {
	var errs []error
	if c.Rounds < 1 {
		errs = append(errs, fmt.Errorf("rounds must be >= 1, got %d", c.Rounds))
	}
	if c.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("max_depth must be >= 1, got %d", c.MaxDepth))
	}
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		errs = append(errs, fmt.Errorf("learning_rate must be in (0, 1], got %g", c.LearningRate))
	}
	if c.Subsample <= 0 || c.Subsample > 1 {
		errs = append(errs, fmt.Errorf("subsample must be in (0, 1], got %g", c.Subsample))
	}
	if c.ColSample <= 0 || c.ColSample > 1 {
		errs = append(errs, fmt.Errorf("colsample must be in (0, 1], got %g", c.ColSample))
	}
	if c.Lambda < 0 {
		errs = append(errs, fmt.Errorf("lambda must be >= 0, got %g", c.Lambda))
	}
	if c.MinChildWeight < 0 {
		errs = append(errs, fmt.Errorf("min_child_weight must be >= 0, got %g", c.MinChildWeight))
	}
	if c.MaxBins < 2 || c.MaxBins > MaxBinsLimit {
		errs = append(errs, fmt.Errorf("max_bins must be in [2, %d], got %d", MaxBinsLimit, c.MaxBins))
	}
	if c.EarlyStoppingRounds < 0 {
		errs = append(errs, fmt.Errorf("early_stopping_rounds must be >= 0, got %d", c.EarlyStoppingRounds))
	}
	if c.ValidationFraction < 0 || c.ValidationFraction >= 1 {
		errs = append(errs, fmt.Errorf("validation_fraction must be in [0, 1), got %g", c.ValidationFraction))
	}
	return errors.Join(errs...)
}
