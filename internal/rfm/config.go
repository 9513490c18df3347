// Package rfm derives the proxy credit-risk label from transaction history.
//
// Customers are summarized by recency, frequency and monetary value, the
// summaries are standardized and clustered with k-means, and the cluster whose
// members transact least (lowest mean of frequency and monetary value) is
// flagged as high risk.
package rfm

import (
	"errors"
	"fmt"
)

// Config controls clustering.
type Config struct {
	Clusters  int
	Seed      int64
	NInit     int
	MaxIter   int
	Tolerance float64
}

// DefaultConfig returns three clusters, ten restarts and seed 42.
func DefaultConfig() Config {
	return Config{
		Clusters:  3,
		Seed:      42,
		NInit:     10,
		MaxIter:   300,
		Tolerance: 1e-4,
	}
}

// Validate checks the configuration independently of any data.
func (c Config) Validate() error {
	var errs []error
	if c.Clusters < 1 {
		errs = append(errs, fmt.Errorf("clusters must be >= 1, got %d", c.Clusters))
	}
	if c.NInit < 1 {
		errs = append(errs, fmt.Errorf("n_init must be >= 1, got %d", c.NInit))
	}
	if c.MaxIter < 1 {
		errs = append(errs, fmt.Errorf("max_iter must be >= 1, got %d", c.MaxIter))
	}
	if c.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("tolerance must be >= 0, got %g", c.Tolerance))
	}
	return errors.Join(errs...)
}
